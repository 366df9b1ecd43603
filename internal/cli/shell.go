// Package cli is the interactive front end of the client: a line-oriented
// shell whose commands play the role of the views, gated by the same route
// guards the console uses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/atinyakov/expedientes/internal/client/export"
	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/guard"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/client/query"
	"github.com/atinyakov/expedientes/internal/client/session"
	"github.com/atinyakov/expedientes/internal/models"
	"github.com/atinyakov/expedientes/internal/service"
	"go.uber.org/zap"
)

// Services is what the shell drives. Health and HealthCheck may be nil.
type Services struct {
	Auth        *service.AuthService
	Expedientes *service.ExpedienteService
	Indicios    *service.IndicioService
	Usuarios    *service.UsuarioService
	Exporter    *export.Exporter
	HealthCheck *service.HealthService
	Health      *service.HealthWatch
}

type Config struct {
	In      io.Reader
	Out     io.Writer
	Session *session.Store
	Services
	// Notifications is drained and printed after every command. The role
	// guard notifies into it as well.
	Notifications *notify.Queue
	Logger        *zap.Logger
}

type command struct {
	usage string
	help  string
	// args is the number of required arguments.
	args   int
	public bool
	admin  bool
	route  func(args []string) string
	run    func(ctx context.Context, args []string) error
}

// Shell reads commands and runs them against the services.
type Shell struct {
	prompt  *Prompter
	out     io.Writer
	session *session.Store
	svc     Services
	notes   *notify.Queue
	auth    *guard.AuthGuard
	admin   *guard.RoleGuard
	log     *zap.Logger

	mu       sync.Mutex
	route    string
	returnTo string

	commands map[string]command
}

func New(cfg Config) *Shell {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notes := cfg.Notifications
	if notes == nil {
		notes = notify.NewQueue(0)
	}
	s := &Shell{
		prompt:  NewPrompter(cfg.In, cfg.Out),
		out:     cfg.Out,
		session: cfg.Session,
		svc:     cfg.Services,
		notes:   notes,
		auth:    guard.NewAuthGuard(cfg.Session),
		admin:   guard.NewRoleGuard(cfg.Session, notes, models.RoleCoordinador),
		log:     log,
		route:   guard.LoginRoute,
	}
	s.admin.RemountOn(cfg.Session)
	if cfg.Session.IsAuthenticated() {
		s.route = guard.DefaultRoute
	}
	s.commands = s.table()
	return s
}

// Navigate moves the shell to path. The gateway calls it after a session
// expiry, possibly from another goroutine.
func (s *Shell) Navigate(path string) {
	s.mu.Lock()
	s.route = path
	s.mu.Unlock()
}

// Route is the view the shell is currently on.
func (s *Shell) Route() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// Run reads and executes commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Escribe 'help' para ver los comandos disponibles.")
	for ctx.Err() == nil {
		line, err := s.prompt.Line(fmt.Sprintf("expedientes %s> ", s.Route()))
		if errors.Is(err, ErrEOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			s.flush()
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Hasta luego")
			return nil
		}
		s.Exec(ctx, args)
	}
	return nil
}

// Exec runs one command line and prints the notifications it raised.
func (s *Shell) Exec(ctx context.Context, args []string) {
	defer s.flush()

	cmd, ok := s.commands[args[0]]
	if !ok {
		fmt.Fprintf(s.out, "Comando desconocido %q. Escribe 'help'.\n", args[0])
		return
	}
	params := args[1:]
	if len(params) < cmd.args {
		fmt.Fprintln(s.out, "Uso: "+cmd.usage)
		return
	}

	var target string
	if cmd.route != nil {
		target = cmd.route(params)
	}
	if !cmd.public {
		if d := s.auth.Check(target); !d.Allowed {
			s.mu.Lock()
			s.route = d.Redirect
			s.returnTo = d.ReturnTo
			s.mu.Unlock()
			fmt.Fprintln(s.out, "Inicia sesión para continuar (login).")
			return
		}
	}
	if cmd.admin {
		// Entering the users area from elsewhere is a fresh mount.
		if !strings.HasPrefix(s.Route(), "/usuarios") {
			s.admin.Remount()
		}
		if d := s.admin.Check(); !d.Allowed {
			s.Navigate(d.Redirect)
			return
		}
	}
	if target != "" {
		s.Navigate(target)
	}
	if err := cmd.run(ctx, params); err != nil {
		s.report(err)
	}
}

func (s *Shell) flush() {
	for _, n := range s.notes.Drain() {
		fmt.Fprintln(s.out, renderNotification(n))
	}
}

// report prints a failed command. Failures the gateway or exporter has
// already notified about are only logged.
func (s *Shell) report(err error) {
	var verr *gateway.ValidationError
	if errors.As(err, &verr) {
		if verr.Field != "" {
			fmt.Fprintln(s.out, styleError.Render("✗ "+verr.Field+": "+verr.Message))
		} else {
			fmt.Fprintln(s.out, styleError.Render("✗ "+verr.Message))
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(s.out, "Cancelado.")
		return
	}
	switch gateway.KindOf(err) {
	case gateway.KindPermissionDenied, gateway.KindRateLimited, gateway.KindServer,
		gateway.KindTransport, gateway.KindAuthExpired, gateway.KindExportFailed:
		s.log.Debug("command failed", zap.Error(err))
	default:
		fmt.Fprintln(s.out, styleError.Render("✗ "+message(err)))
	}
}

func message(err error) string {
	var e *gateway.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func at(format string) func([]string) string {
	return func(args []string) string {
		if strings.Contains(format, "%s") {
			return fmt.Sprintf(format, args[0])
		}
		return format
	}
}

func (s *Shell) table() map[string]command {
	return map[string]command{
		"help": {usage: "help", help: "muestra esta ayuda", public: true, run: s.help},
		"login": {usage: "login", help: "inicia sesión", public: true,
			route: at(guard.LoginRoute), run: s.login},
		"logout": {usage: "logout", help: "cierra la sesión", public: true, run: s.logout},
		"health": {usage: "health", help: "estado del backend", public: true, run: s.health},
		"whoami": {usage: "whoami", help: "usuario actual", run: s.whoami},
		"dashboard": {usage: "dashboard", help: "resumen de expedientes",
			route: at("/dashboard"), run: s.dashboard},
		"list": {usage: "list [q=.. estado=.. tecnicoId=.. fechaInicio=.. fechaFin=.. pagina=.. tamanoPagina=..]",
			help: "lista expedientes", route: at("/expedientes"), run: s.list},
		"get": {usage: "get <id>", help: "muestra un expediente", args: 1,
			route: at("/expedientes/%s"), run: s.get},
		"create": {usage: "create", help: "crea un expediente",
			route: at("/expedientes/nuevo"), run: s.create},
		"edit": {usage: "edit <id>", help: "edita un expediente", args: 1,
			route: at("/expedientes/%s/editar"), run: s.edit},
		"approve": {usage: "approve <id>", help: "aprueba un expediente", args: 1,
			route: at("/expedientes/%s"), run: s.approve},
		"reject": {usage: "reject <id>", help: "rechaza un expediente", args: 1,
			route: at("/expedientes/%s"), run: s.reject},
		"indicios": {usage: "indicios <expedienteId> [activo=.. pagina=.. tamanoPagina=..]",
			help: "lista los indicios de un expediente", args: 1,
			route: at("/expedientes/%s"), run: s.indicios},
		"add-indicio": {usage: "add-indicio <expedienteId>", help: "añade un indicio", args: 1,
			route: at("/expedientes/%s"), run: s.addIndicio},
		"edit-indicio": {usage: "edit-indicio <id>", help: "edita un indicio", args: 1,
			run: s.editIndicio},
		"toggle-indicio": {usage: "toggle-indicio <id>", help: "activa o desactiva un indicio", args: 1,
			run: s.toggleIndicio},
		"users": {usage: "users [q=.. rol=.. activo=.. pagina=.. tamanoPagina=..]",
			help: "lista usuarios", admin: true, route: at("/usuarios"), run: s.users},
		"add-user": {usage: "add-user", help: "crea un usuario", admin: true,
			route: at("/usuarios"), run: s.addUser},
		"passwd": {usage: "passwd <id>", help: "cambia la contraseña de un usuario", args: 1, admin: true,
			route: at("/usuarios"), run: s.passwd},
		"user-active": {usage: "user-active <id> on|off", help: "activa o desactiva un usuario", args: 2, admin: true,
			route: at("/usuarios"), run: s.userActive},
		"delete-user": {usage: "delete-user <id>", help: "elimina un usuario", args: 1, admin: true,
			route: at("/usuarios"), run: s.deleteUser},
		"export": {usage: "export [filtros como en list]", help: "exporta expedientes a Excel",
			route: at("/expedientes"), run: s.exportAll},
		"export-one": {usage: "export-one <id>", help: "exporta un expediente a Excel", args: 1,
			route: at("/expedientes/%s"), run: s.exportOne},
	}
}

func (s *Shell) help(context.Context, []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.commands[name]
		fmt.Fprintf(s.out, "  %-60s %s\n", c.usage, styleMuted.Render(c.help))
	}
	fmt.Fprintf(s.out, "  %-60s %s\n", "exit", styleMuted.Render("sale del shell"))
	return nil
}

func (s *Shell) login(ctx context.Context, _ []string) error {
	username, password, err := PromptLogin(s.prompt)
	if err != nil {
		return err
	}
	user, err := s.svc.Auth.Login(ctx, username, password)
	if gateway.IsAuthExpired(err) {
		// Rejected credentials: the gateway stays quiet since no session was sent.
		fmt.Fprintln(s.out, styleError.Render("✗ "+message(err)))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Bienvenido, %s (%s)\n", user.Username, user.Role)

	s.mu.Lock()
	next := s.returnTo
	s.returnTo = ""
	if next == "" {
		next = guard.DefaultRoute
	}
	s.route = next
	s.mu.Unlock()
	return nil
}

func (s *Shell) logout(context.Context, []string) error {
	if s.svc.Auth.Logout() {
		fmt.Fprintln(s.out, "Sesión cerrada.")
	}
	s.Navigate(guard.LoginRoute)
	return nil
}

func (s *Shell) whoami(context.Context, []string) error {
	u, _ := s.svc.Auth.Current()
	fmt.Fprintf(s.out, "%s (#%d, %s)\n", u.Username, u.ID, u.Role)
	return nil
}

func (s *Shell) health(ctx context.Context, _ []string) error {
	if s.svc.HealthCheck == nil {
		return errors.New("health check not configured")
	}
	h, ok := s.svc.HealthCheck.Check(ctx)
	if ok {
		fmt.Fprintln(s.out, styleSuccess.Render("Backend operativo")+" "+styleMuted.Render(h.Timestamp))
	} else {
		fmt.Fprintln(s.out, styleError.Render("Backend inaccesible"))
	}
	return nil
}

func (s *Shell) dashboard(ctx context.Context, _ []string) error {
	u, _ := s.svc.Auth.Current()
	sum, err := s.svc.Expedientes.Dashboard(ctx, u)
	if err != nil {
		return err
	}
	printSummary(s.out, sum)
	if s.svc.Health != nil {
		if healthy, known := s.svc.Health.Healthy(); known && !healthy {
			fmt.Fprintln(s.out, styleError.Render("Backend inaccesible"))
		}
	}
	return nil
}

func (s *Shell) list(ctx context.Context, args []string) error {
	page, err := s.svc.Expedientes.Search(ctx, query.Parse(args))
	if err != nil {
		return err
	}
	printExpedientes(s.out, page)
	return nil
}

func (s *Shell) get(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := s.svc.Expedientes.Get(ctx, id)
	if err != nil {
		return err
	}
	printExpediente(s.out, e)
	return nil
}

func (s *Shell) create(ctx context.Context, _ []string) error {
	dto, err := PromptExpediente(s.prompt)
	if err != nil {
		return err
	}
	e, err := s.svc.Expedientes.Create(ctx, dto)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render(fmt.Sprintf("Expediente creado (#%d)", e.ID)))
	s.Navigate(fmt.Sprintf("/expedientes/%d", e.ID))
	return nil
}

func (s *Shell) edit(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dto, err := PromptExpedienteUpdate(s.prompt)
	if err != nil {
		return err
	}
	if _, err := s.svc.Expedientes.Update(ctx, id, dto); err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render("Expediente actualizado"))
	return nil
}

func (s *Shell) approve(ctx context.Context, args []string) error {
	return s.changeEstado(ctx, args[0], models.EstadoAprobado, "")
}

func (s *Shell) reject(ctx context.Context, args []string) error {
	j, err := s.prompt.Line("Justificación: ")
	if err != nil {
		return err
	}
	return s.changeEstado(ctx, args[0], models.EstadoRechazado, j)
}

func (s *Shell) changeEstado(ctx context.Context, rawID string, estado models.Estado, justificacion string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	e, err := s.svc.Expedientes.ChangeEstado(ctx, id, string(estado), justificacion)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Expediente #%d: %s\n", e.ID, estadoBadge(e.Estado))
	return nil
}

func (s *Shell) indicios(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	f, err := indicioFilters(query.Parse(args[1:]))
	if err != nil {
		return err
	}
	page, err := s.svc.Indicios.List(ctx, id, f)
	if err != nil {
		return err
	}
	printIndicios(s.out, page)
	return nil
}

func (s *Shell) addIndicio(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dto, err := PromptIndicio(s.prompt)
	if err != nil {
		return err
	}
	ind, err := s.svc.Indicios.Create(ctx, id, dto)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render(fmt.Sprintf("Indicio creado (#%d)", ind.ID)))
	return nil
}

func (s *Shell) editIndicio(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dto, err := PromptIndicioUpdate(s.prompt)
	if err != nil {
		return err
	}
	if _, err := s.svc.Indicios.Update(ctx, id, dto); err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render("Indicio actualizado"))
	return nil
}

func (s *Shell) toggleIndicio(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ind, err := s.svc.Indicios.Get(ctx, id)
	if err != nil {
		return err
	}
	ind, err = s.svc.Indicios.SetActivo(ctx, id, !ind.Activo)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Indicio #%d activo: %s\n", ind.ID, yesNo(ind.Activo))
	return nil
}

func (s *Shell) users(ctx context.Context, args []string) error {
	f, err := usuarioFilters(query.Parse(args))
	if err != nil {
		return err
	}
	page, err := s.svc.Usuarios.List(ctx, f)
	if err != nil {
		return err
	}
	printUsuarios(s.out, page)
	return nil
}

func (s *Shell) addUser(ctx context.Context, _ []string) error {
	dto, err := PromptUsuario(s.prompt)
	if err != nil {
		return err
	}
	u, err := s.svc.Usuarios.Create(ctx, dto)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render(fmt.Sprintf("Usuario creado (#%d)", u.ID)))
	return nil
}

func (s *Shell) passwd(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	pw, err := s.prompt.Password("Nueva contraseña: ")
	if err != nil {
		return err
	}
	again, err := s.prompt.Password("Repite la contraseña: ")
	if err != nil {
		return err
	}
	if pw != again {
		return gateway.Invalid("password", "Las contraseñas no coinciden")
	}
	if _, err := s.svc.Usuarios.ChangePassword(ctx, id, pw); err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render("Contraseña actualizada"))
	return nil
}

func (s *Shell) userActive(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	activo, err := parseBool("activo", args[1])
	if err != nil {
		return err
	}
	u, err := s.svc.Usuarios.SetActivo(ctx, id, activo)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Usuario %s activo: %s\n", u.Username, yesNo(u.Activo))
	return nil
}

func (s *Shell) deleteUser(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	answer, err := s.prompt.Line(fmt.Sprintf("¿Eliminar el usuario #%d? (s/N): ", id))
	if err != nil {
		return err
	}
	if a := strings.ToLower(answer); a != "s" && a != "si" && a != "sí" {
		fmt.Fprintln(s.out, "Cancelado.")
		return nil
	}
	if err := s.svc.Usuarios.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(s.out, styleSuccess.Render("Usuario eliminado"))
	return nil
}

func (s *Shell) exportAll(ctx context.Context, args []string) error {
	f, err := expedienteFilters(query.Parse(args))
	if err != nil {
		return err
	}
	path, err := s.svc.Exporter.ExportAll(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Guardado en "+path)
	return nil
}

func (s *Shell) exportOne(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	path, err := s.svc.Exporter.ExportOne(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Guardado en "+path)
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, gateway.Invalid("id", fmt.Sprintf("Identificador inválido: %q", raw))
	}
	return id, nil
}
