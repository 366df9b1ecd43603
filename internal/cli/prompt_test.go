package cli

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/atinyakov/expedientes/internal/models"
)

func pipeIn(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.WriteString(input)
	w.Close()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPromptLogin_FromPipe(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(pipeIn(t, "  ana \nsecret\n"), &out)

	user, pass, err := PromptLogin(p)
	if err != nil {
		t.Fatal(err)
	}
	if user != "ana" || pass != "secret" {
		t.Errorf("got %q/%q; want ana/secret", user, pass)
	}
	if !strings.Contains(out.String(), "Contraseña: ") {
		t.Errorf("password label not printed: %q", out.String())
	}
}

func TestPromptIndicio_OptionalFields(t *testing.T) {
	p := NewPrompter(strings.NewReader("Casquillo de bala\n12,5\n\nmediano\n"), &bytes.Buffer{})

	dto, err := PromptIndicio(p)
	if err != nil {
		t.Fatal(err)
	}
	if dto.Descripcion != "Casquillo de bala" {
		t.Errorf("Descripcion = %q", dto.Descripcion)
	}
	if dto.Peso == nil || *dto.Peso != 12.5 {
		t.Errorf("Peso = %v; want 12.5", dto.Peso)
	}
	if dto.Color != nil {
		t.Errorf("Color = %q; want nil", *dto.Color)
	}
	if dto.Tamano == nil || *dto.Tamano != "mediano" {
		t.Errorf("Tamano = %v; want mediano", dto.Tamano)
	}
}

func TestPromptIndicio_BadNumber(t *testing.T) {
	p := NewPrompter(strings.NewReader("Casquillo\npesado\n"), &bytes.Buffer{})
	if _, err := PromptIndicio(p); err == nil {
		t.Fatal("expected error for non-numeric peso")
	}
}

func TestPromptExpedienteUpdate_EmptyKeepsFields(t *testing.T) {
	p := NewPrompter(strings.NewReader("\nNuevo título\n\n"), &bytes.Buffer{})

	dto, err := PromptExpedienteUpdate(p)
	if err != nil {
		t.Fatal(err)
	}
	if dto.Codigo != nil || dto.Descripcion != nil {
		t.Errorf("unexpected fields set: %+v", dto)
	}
	if dto.Titulo == nil || *dto.Titulo != "Nuevo título" {
		t.Errorf("Titulo = %v", dto.Titulo)
	}
}

func TestPromptUsuario_NormalizesRole(t *testing.T) {
	p := NewPrompter(strings.NewReader("luis\nsecreto1\n Coordinador \n"), &bytes.Buffer{})

	dto, err := PromptUsuario(p)
	if err != nil {
		t.Fatal(err)
	}
	if dto.Role != models.RoleCoordinador {
		t.Errorf("Role = %q; want coordinador", dto.Role)
	}
}

func TestPrompter_EOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	if _, err := p.Line("> "); !errors.Is(err, ErrEOF) {
		t.Errorf("err = %v; want ErrEOF", err)
	}
}
