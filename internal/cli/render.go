package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/models"
	"github.com/atinyakov/expedientes/internal/service"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	estadoStyles = map[models.Estado]lipgloss.Style{
		models.EstadoAbierto:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.EstadoAprobado:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		models.EstadoRechazado: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func estadoBadge(e models.Estado) string {
	if st, ok := estadoStyles[e]; ok {
		return st.Render(e.Display())
	}
	return e.Display()
}

func renderNotification(n notify.Notification) string {
	var mark string
	switch n.Variant {
	case notify.Destructive:
		mark = styleError.Render("✗ " + n.Title)
	case notify.Success:
		mark = styleSuccess.Render("✓ " + n.Title)
	default:
		mark = styleTitle.Render("• " + n.Title)
	}
	if n.Description == "" {
		return mark
	}
	return mark + " " + styleMuted.Render(n.Description)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func deref[T any](p *T, empty string) string {
	if p == nil {
		return empty
	}
	return fmt.Sprint(*p)
}

func pageFooter[T any](w io.Writer, p models.Page[T]) {
	fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("página %d de %d · %d en total", p.Page, p.TotalPages, p.Total)))
}

func printExpedientes(w io.Writer, p models.Page[models.Expediente]) {
	if len(p.Data) == 0 {
		fmt.Fprintln(w, "No hay expedientes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	// Styled cells carry escape codes tabwriter would count, so the
	// badge goes last.
	fmt.Fprintln(tw, "ID\tCÓDIGO\tTÍTULO\tTÉCNICO\tACTUALIZADO\tESTADO")
	for _, e := range p.Data {
		tecnico := strconv.FormatInt(e.TecnicoID, 10)
		if e.Tecnico != nil {
			tecnico = e.Tecnico.Username
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Codigo, e.Titulo, tecnico, date(e.UpdatedAt), estadoBadge(e.Estado))
	}
	_ = tw.Flush()
	pageFooter(w, p)
}

func printExpediente(w io.Writer, e models.Expediente) {
	fmt.Fprintf(w, "%s  %s\n", styleTitle.Render(e.Codigo+" · "+e.Titulo), estadoBadge(e.Estado))
	fmt.Fprintln(w, e.Descripcion)
	if e.JustificacionEstado != nil && *e.JustificacionEstado != "" {
		fmt.Fprintf(w, "Justificación: %s\n", *e.JustificacionEstado)
	}
	fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("creado %s · actualizado %s", date(e.CreatedAt), date(e.UpdatedAt))))
}

func printIndicios(w io.Writer, p models.Page[models.Indicio]) {
	if len(p.Data) == 0 {
		fmt.Fprintln(w, "No hay indicios.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESCRIPCIÓN\tPESO\tCOLOR\tTAMAÑO\tACTIVO")
	for _, ind := range p.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", ind.ID, ind.Descripcion,
			deref(ind.Peso, "-"), deref(ind.Color, "-"), deref(ind.Tamano, "-"), yesNo(ind.Activo))
	}
	_ = tw.Flush()
	pageFooter(w, p)
}

func printUsuarios(w io.Writer, p models.Page[models.Usuario]) {
	if len(p.Data) == 0 {
		fmt.Fprintln(w, "No hay usuarios.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSUARIO\tROL\tACTIVO\tCREADO")
	for _, u := range p.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, yesNo(u.Activo), date(u.CreatedAt))
	}
	_ = tw.Flush()
	pageFooter(w, p)
}

func printSummary(w io.Writer, s service.Summary) {
	fmt.Fprintf(w, "Total: %d  %s: %d  %s: %d  %s: %d\n", s.Total,
		estadoBadge(models.EstadoAbierto), s.Abiertos,
		estadoBadge(models.EstadoAprobado), s.Aprobados,
		estadoBadge(models.EstadoRechazado), s.Rechazados)
	if s.Mine != nil {
		fmt.Fprintf(w, "Asignados a ti: %d\n", *s.Mine)
	}
	if len(s.Recent) > 0 {
		fmt.Fprintln(w, styleTitle.Render("Recientes"))
		for _, e := range s.Recent {
			fmt.Fprintf(w, "  #%d %s %s %s\n", e.ID, e.Codigo, e.Titulo, estadoBadge(e.Estado))
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
