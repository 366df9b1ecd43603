package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/expedientes/internal/models"
	"golang.org/x/term"
)

// ErrEOF is returned when the input ends while a prompt is waiting.
var ErrEOF = errors.New("input closed")

// Prompter reads answers line by line. Passwords are read without echo
// when the input is a terminal.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	fd      int
	isTTY   bool
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{scanner: bufio.NewScanner(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.isTTY = term.IsTerminal(p.fd)
	}
	return p
}

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrEOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Optional is Line where an empty answer means "not given".
func (p *Prompter) Optional(label string) (*string, error) {
	s, err := p.Line(label)
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

// Float reads an optional number.
func (p *Prompter) Float(label string) (*float64, error) {
	s, err := p.Line(label)
	if err != nil || s == "" {
		return nil, err
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("%q no es un número", s)
	}
	return &f, nil
}

// Password reads a secret, with echo disabled on a terminal.
func (p *Prompter) Password(label string) (string, error) {
	if !p.isTTY {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// PromptLogin asks for credentials.
func PromptLogin(p *Prompter) (username, password string, err error) {
	if username, err = p.Line("Usuario: "); err != nil {
		return "", "", err
	}
	if password, err = p.Password("Contraseña: "); err != nil {
		return "", "", err
	}
	return username, password, nil
}

// PromptExpediente asks for a new expediente.
func PromptExpediente(p *Prompter) (models.CreateExpedienteDTO, error) {
	var dto models.CreateExpedienteDTO
	var err error
	if dto.Codigo, err = p.Line("Código: "); err != nil {
		return dto, err
	}
	if dto.Titulo, err = p.Line("Título: "); err != nil {
		return dto, err
	}
	dto.Descripcion, err = p.Line("Descripción: ")
	return dto, err
}

// PromptExpedienteUpdate asks for the fields to change; empty answers
// leave a field untouched.
func PromptExpedienteUpdate(p *Prompter) (models.UpdateExpedienteDTO, error) {
	var dto models.UpdateExpedienteDTO
	var err error
	if dto.Codigo, err = p.Optional("Código (vacío = sin cambios): "); err != nil {
		return dto, err
	}
	if dto.Titulo, err = p.Optional("Título (vacío = sin cambios): "); err != nil {
		return dto, err
	}
	dto.Descripcion, err = p.Optional("Descripción (vacío = sin cambios): ")
	return dto, err
}

// PromptIndicio asks for a new indicio.
func PromptIndicio(p *Prompter) (models.CreateIndicioDTO, error) {
	var dto models.CreateIndicioDTO
	var err error
	if dto.Descripcion, err = p.Line("Descripción: "); err != nil {
		return dto, err
	}
	if dto.Peso, err = p.Float("Peso (opcional): "); err != nil {
		return dto, err
	}
	if dto.Color, err = p.Optional("Color (opcional): "); err != nil {
		return dto, err
	}
	dto.Tamano, err = p.Optional("Tamaño (opcional): ")
	return dto, err
}

// PromptIndicioUpdate asks for the indicio fields to change.
func PromptIndicioUpdate(p *Prompter) (models.UpdateIndicioDTO, error) {
	var dto models.UpdateIndicioDTO
	var err error
	if dto.Descripcion, err = p.Optional("Descripción (vacío = sin cambios): "); err != nil {
		return dto, err
	}
	if dto.Peso, err = p.Float("Peso (vacío = sin cambios): "); err != nil {
		return dto, err
	}
	if dto.Color, err = p.Optional("Color (vacío = sin cambios): "); err != nil {
		return dto, err
	}
	dto.Tamano, err = p.Optional("Tamaño (vacío = sin cambios): ")
	return dto, err
}

// PromptUsuario asks for a new user account.
func PromptUsuario(p *Prompter) (models.CreateUsuarioDTO, error) {
	var dto models.CreateUsuarioDTO
	var err error
	if dto.Username, err = p.Line("Usuario: "); err != nil {
		return dto, err
	}
	if dto.Password, err = p.Password("Contraseña: "); err != nil {
		return dto, err
	}
	rol, err := p.Line("Rol (tecnico/coordinador): ")
	if err != nil {
		return dto, err
	}
	dto.Role, _ = models.ParseRole(rol)
	return dto, nil
}
