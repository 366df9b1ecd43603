package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEstado(t *testing.T) {
	for _, in := range []string{"Aprobado", "APROBADO", " aprobado "} {
		e, ok := ParseEstado(in)
		assert.True(t, ok, in)
		assert.Equal(t, EstadoAprobado, e)
	}
	_, ok := ParseEstado("cerrado")
	assert.False(t, ok)
	assert.Equal(t, "Rechazado", EstadoRechazado.Display())
	assert.True(t, EstadoRechazado.Terminal())
	assert.False(t, EstadoAbierto.Terminal())
}

func TestExpediente_UnmarshalNormalizesEstado(t *testing.T) {
	var e Expediente
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"estado":"Abierto","tecnicoId":7}`), &e))
	assert.Equal(t, EstadoAbierto, e.Estado)
	assert.Equal(t, int64(7), e.TecnicoID)
}

func TestPage_BothConventions(t *testing.T) {
	var a Page[Expediente]
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"id":1}],"pagina":2,"tamanoPagina":10,"total":25}`), &a))
	assert.Equal(t, 2, a.Page)
	assert.Equal(t, 10, a.PageSize)
	assert.Equal(t, 3, a.TotalPages)
	assert.Len(t, a.Data, 1)

	var b Page[Usuario]
	require.NoError(t, json.Unmarshal([]byte(`{"page":1,"pageSize":20,"total":0,"totalPaginas":0}`), &b))
	assert.Equal(t, 1, b.Page)
	assert.Equal(t, 20, b.PageSize)
	assert.NotNil(t, b.Data)
}

func TestFilters_FieldsOmitUndefined(t *testing.T) {
	page, size := 2, 20
	f := ExpedienteFilters{Page: &page, PageSize: &size}
	assert.Equal(t, map[string]any{"page": 2, "pageSize": 20}, f.Fields())
	assert.Empty(t, UsuarioFilters{}.Fields())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("Coordinador")
	assert.True(t, ok)
	assert.Equal(t, RoleCoordinador, r)
	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
