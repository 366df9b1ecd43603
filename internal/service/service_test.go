package service_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/models"
	"github.com/atinyakov/expedientes/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type backend struct {
	calls    []call
	hits     atomic.Int32
	status   int
	response string
}

func (b *backend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		c := call{Method: r.Method, Path: strings.TrimPrefix(r.URL.Path, "/api"), Query: r.URL.RawQuery}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				require.NoError(t, json.Unmarshal(raw, &c.Body))
			}
		}
		b.calls = append(b.calls, c)
		if b.status != 0 {
			w.WriteHeader(b.status)
		}
		_, _ = w.Write([]byte(b.response))
	}
}

func (b *backend) last() call { return b.calls[len(b.calls)-1] }

type memSession struct {
	token string
	user  *models.User
}

func (s *memSession) Token() string { return s.token }
func (s *memSession) Logout() bool {
	had := s.token != ""
	s.token, s.user = "", nil
	return had
}
func (s *memSession) Login(token string, u models.User) error {
	s.token, s.user = token, &u
	return nil
}
func (s *memSession) User() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func newAPI(t *testing.T, b *backend, sess *memSession) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)
	c, err := gateway.New(gateway.Config{
		BaseURL:   srv.URL + "/api",
		Session:   sess,
		AfterFunc: func(time.Duration, func()) {},
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestAuthService_Login(t *testing.T) {
	b := &backend{response: `{"success":true,"data":{"token":"jwt","user":{"id":7,"username":"ana","rol":"coordinador"}}}`}
	sess := &memSession{}
	auth := service.NewAuthService(newAPI(t, b, sess), sess, nil)

	u, err := auth.Login(context.Background(), " ana ", "secreto")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinador, u.Role)
	assert.Equal(t, "jwt", sess.Token())
	assert.Equal(t, "ana", b.last().Body["username"])

	cur, ok := auth.Current()
	require.True(t, ok)
	assert.Equal(t, int64(7), cur.ID)

	assert.True(t, auth.Logout())
	assert.False(t, auth.Logout())
}

func TestAuthService_LoginValidation(t *testing.T) {
	b := &backend{}
	sess := &memSession{}
	auth := service.NewAuthService(newAPI(t, b, sess), sess, nil)

	_, err := auth.Login(context.Background(), "  ", "x")
	assert.True(t, gateway.IsValidation(err))
	_, err = auth.Login(context.Background(), "ana", "")
	assert.True(t, gateway.IsValidation(err))
	assert.Zero(t, b.hits.Load())
}

func TestAuthService_BadCredentialsKeepSession(t *testing.T) {
	b := &backend{status: http.StatusUnauthorized, response: `{"success":false,"error":"Credenciales inválidas"}`}
	sess := &memSession{}
	auth := service.NewAuthService(newAPI(t, b, sess), sess, nil)

	_, err := auth.Login(context.Background(), "ana", "mala")
	assert.True(t, gateway.IsAuthExpired(err))
	_, ok := auth.Current()
	assert.False(t, ok)
}

func TestExpedienteService_ListMapsFilters(t *testing.T) {
	b := &backend{response: `{"data":[{"id":1,"estado":"Abierto"}],"page":2,"pageSize":10,"total":11}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	page, err := svc.List(context.Background(), models.ExpedienteFilters{
		Page:     ptr(2),
		PageSize: ptr(10),
		Estado:   ptr(models.EstadoAbierto),
	})
	require.NoError(t, err)
	assert.Equal(t, "estado=abierto&pagina=2&tamanoPagina=10", b.last().Query)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.EstadoAbierto, page.Data[0].Estado)
}

func TestExpedienteService_Search(t *testing.T) {
	b := &backend{response: `{"data":[],"pagina":1,"tamanoPagina":10,"total":0}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	_, err := svc.Search(context.Background(), map[string]any{"estado": "Aprobado", "foo": "bar", "page": 1})
	require.NoError(t, err)
	assert.Equal(t, "estado=aprobado&pagina=1", b.last().Query)

	_, err = svc.Search(context.Background(), map[string]any{"estado": "cerrado"})
	assert.True(t, gateway.IsValidation(err))
	assert.Equal(t, int32(1), b.hits.Load())
}

func TestExpedienteService_GetUnwrapsData(t *testing.T) {
	b := &backend{response: `{"data":{"id":4,"codigo":"EXP-4","estado":"rechazado"}}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	exp, err := svc.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "EXP-4", exp.Codigo)
	assert.Equal(t, "/expedientes/4", b.last().Path)
}

func TestExpedienteService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		dto  models.CreateExpedienteDTO
	}{
		{"codigo short", models.CreateExpedienteDTO{Codigo: "AB", Titulo: "Titulo", Descripcion: "Descripcion"}},
		{"codigo long", models.CreateExpedienteDTO{Codigo: strings.Repeat("x", 31), Titulo: "Titulo", Descripcion: "Descripcion"}},
		{"titulo missing", models.CreateExpedienteDTO{Codigo: "EXP-1", Descripcion: "Descripcion"}},
		{"titulo long", models.CreateExpedienteDTO{Codigo: "EXP-1", Titulo: strings.Repeat("t", 101), Descripcion: "Descripcion"}},
		{"descripcion short", models.CreateExpedienteDTO{Codigo: "EXP-1", Titulo: "Titulo", Descripcion: "abcd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &backend{}
			svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))
			_, err := svc.Create(context.Background(), tt.dto)
			assert.True(t, gateway.IsValidation(err))
			assert.Zero(t, b.hits.Load())
		})
	}
}

func TestExpedienteService_Create(t *testing.T) {
	b := &backend{status: http.StatusCreated, response: `{"success":true,"data":{"id":9,"codigo":"EXP-9"}}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	exp, err := svc.Create(context.Background(), models.CreateExpedienteDTO{Codigo: " EXP-9 ", Titulo: "Robo", Descripcion: "Robo en bodega"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), exp.ID)
	assert.Equal(t, http.MethodPost, b.last().Method)
	assert.Equal(t, "EXP-9", b.last().Body["codigo"])
}

func TestExpedienteService_UpdatePartial(t *testing.T) {
	b := &backend{response: `{"id":3}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	_, err := svc.Update(context.Background(), 3, models.UpdateExpedienteDTO{})
	assert.True(t, gateway.IsValidation(err))

	_, err = svc.Update(context.Background(), 3, models.UpdateExpedienteDTO{Titulo: ptr("Nuevo título")})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, b.last().Method)
	assert.Equal(t, map[string]any{"titulo": "Nuevo título"}, b.last().Body)
}

func TestExpedienteService_UpdateTrimsPresentFields(t *testing.T) {
	b := &backend{response: `{"id":3}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))

	titulo := "  Nuevo título  "
	_, err := svc.Update(context.Background(), 3, models.UpdateExpedienteDTO{
		Codigo: ptr(" EXP-3 "),
		Titulo: &titulo,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"codigo": "EXP-3", "titulo": "Nuevo título"}, b.last().Body)
	assert.Equal(t, "  Nuevo título  ", titulo)
}

func TestExpedienteService_ChangeEstado(t *testing.T) {
	b := &backend{response: `{"data":{"id":1,"estado":"rechazado"}}`}
	svc := service.NewExpedienteService(newAPI(t, b, &memSession{token: "t"}))
	ctx := context.Background()

	_, err := svc.ChangeEstado(ctx, 1, "Rechazado", "   ")
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.ChangeEstado(ctx, 1, "Abierto", "")
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.ChangeEstado(ctx, 1, "cerrado", "")
	assert.True(t, gateway.IsValidation(err))
	assert.Zero(t, b.hits.Load())

	exp, err := svc.ChangeEstado(ctx, 1, "Rechazado", "Falta evidencia")
	require.NoError(t, err)
	assert.Equal(t, models.EstadoRechazado, exp.Estado)
	assert.Equal(t, http.MethodPatch, b.last().Method)
	assert.Equal(t, "/expedientes/1/estado", b.last().Path)
	assert.Equal(t, "rechazado", b.last().Body["estado"])
	assert.Equal(t, "Falta evidencia", b.last().Body["justificacion"])

	_, err = svc.ChangeEstado(ctx, 1, "APROBADO", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"estado": "aprobado"}, b.last().Body)
}

func TestIndicioService(t *testing.T) {
	b := &backend{response: `{"id":5,"descripcion":"Huella","activo":false}`}
	svc := service.NewIndicioService(newAPI(t, b, &memSession{token: "t"}))
	ctx := context.Background()

	_, err := svc.Create(ctx, 2, models.CreateIndicioDTO{Descripcion: "ab"})
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.Create(ctx, 2, models.CreateIndicioDTO{Descripcion: "Huella", Peso: ptr(-1.0)})
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.Create(ctx, 2, models.CreateIndicioDTO{Descripcion: "Huella", Color: ptr(strings.Repeat("r", 51))})
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.Create(ctx, 2, models.CreateIndicioDTO{Descripcion: "Huella", Peso: ptr(math.NaN())})
	assert.True(t, gateway.IsValidation(err))
	_, err = svc.Update(ctx, 5, models.UpdateIndicioDTO{Peso: ptr(math.Inf(1))})
	assert.True(t, gateway.IsValidation(err))
	assert.Zero(t, b.hits.Load())

	_, err = svc.Create(ctx, 2, models.CreateIndicioDTO{Descripcion: "Huella", Peso: ptr(0.0)})
	require.NoError(t, err)
	assert.Equal(t, "/expedientes/2/indicios", b.last().Path)

	ind, err := svc.SetActivo(ctx, 5, false)
	require.NoError(t, err)
	assert.False(t, ind.Activo)
	assert.Equal(t, "/indicios/5/activo", b.last().Path)
	assert.Equal(t, map[string]any{"activo": false}, b.last().Body)

	b.response = `{"data":[],"pagina":3,"tamanoPagina":5,"total":0}`
	_, err = svc.List(ctx, 2, models.IndicioFilters{Page: ptr(3), PageSize: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, "pagina=3&tamanoPagina=5", b.last().Query)
}

func TestUsuarioService(t *testing.T) {
	b := &backend{response: `{"id":8,"username":"nuevo","rol":"tecnico","activo":true}`}
	svc := service.NewUsuarioService(newAPI(t, b, &memSession{token: "t"}))
	ctx := context.Background()

	invalid := []models.CreateUsuarioDTO{
		{Username: "ab", Password: "secreto", Role: models.RoleTecnico},
		{Username: "nuevo", Password: "12345", Role: models.RoleTecnico},
		{Username: "nuevo", Password: "secreto", Role: "admin"},
	}
	for _, dto := range invalid {
		_, err := svc.Create(ctx, dto)
		assert.True(t, gateway.IsValidation(err), dto)
	}
	_, err := svc.ChangePassword(ctx, 8, "123")
	assert.True(t, gateway.IsValidation(err))
	assert.Zero(t, b.hits.Load())

	_, err = svc.Create(ctx, models.CreateUsuarioDTO{Username: " nuevo ", Password: "secreto", Role: models.RoleTecnico})
	require.NoError(t, err)
	assert.Equal(t, "nuevo", b.last().Body["username"])

	_, err = svc.ChangePassword(ctx, 8, "otraClave")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"newPassword": "otraClave", "password": "otraClave"}, b.last().Body)

	_, err = svc.SetActivo(ctx, 8, false)
	require.NoError(t, err)
	assert.Equal(t, "/usuarios/8/activo", b.last().Path)

	b.response = ``
	require.NoError(t, svc.Delete(ctx, 8))
	assert.Equal(t, http.MethodDelete, b.last().Method)
}

func TestUsuarioService_ForbiddenForTecnico(t *testing.T) {
	b := &backend{status: http.StatusForbidden}
	svc := service.NewUsuarioService(newAPI(t, b, &memSession{token: "t"}))

	_, err := svc.List(context.Background(), models.UsuarioFilters{Role: ptr(models.RoleTecnico)})
	assert.True(t, gateway.IsPermissionDenied(err))
	assert.Equal(t, "rol=tecnico", b.last().Query)
}

func TestSummarize(t *testing.T) {
	page := models.Page[models.Expediente]{
		Total: 4,
		Data: []models.Expediente{
			{ID: 1, Estado: models.EstadoAbierto, TecnicoID: 2},
			{ID: 2, Estado: models.EstadoAbierto, TecnicoID: 3},
			{ID: 3, Estado: models.EstadoAprobado, TecnicoID: 2},
			{ID: 4, Estado: models.EstadoRechazado, TecnicoID: 3},
		},
	}

	s := service.Summarize(page, models.User{ID: 2, Role: models.RoleTecnico})
	assert.Equal(t, 2, s.Abiertos)
	assert.Equal(t, 1, s.Aprobados)
	assert.Equal(t, 1, s.Rechazados)
	require.NotNil(t, s.Mine)
	assert.Equal(t, 2, *s.Mine)
	assert.Len(t, s.Recent, 4)

	s = service.Summarize(page, models.User{ID: 9, Role: models.RoleCoordinador})
	assert.Nil(t, s.Mine)
}
