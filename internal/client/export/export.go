// Package export downloads spreadsheet exports of expedientes and hands
// them to a Saver.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/client/query"
	"github.com/atinyakov/expedientes/internal/models"
	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// Gateway is the part of gateway.Client the exporter uses.
type Gateway interface {
	Download(ctx context.Context, path string, params url.Values) (*http.Response, error)
	Interpret(status int, header http.Header, body []byte, requestID string) error
	Now() time.Time
	Notifier() notify.Notifier
}

// Saver stores a downloaded file and returns where it went.
type Saver interface {
	Save(name, contentType string, r io.Reader) (string, error)
}

// Exporter runs the export flow.
type Exporter struct {
	gw    Gateway
	saver Saver
	log   *zap.Logger
}

func New(gw Gateway, saver Saver, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{gw: gw, saver: saver, log: log}
}

// ExportAll downloads the filtered expediente list. Paging filters are
// ignored: the export always covers every matching record.
func (e *Exporter) ExportAll(ctx context.Context, f models.ExpedienteFilters) (string, error) {
	return e.ExportAllTo(ctx, e.saver, f)
}

// ExportOne downloads a single expediente with its indicios.
func (e *Exporter) ExportOne(ctx context.Context, id int64) (string, error) {
	return e.ExportOneTo(ctx, e.saver, id)
}

// ExportAllTo is ExportAll with a per-call Saver.
func (e *Exporter) ExportAllTo(ctx context.Context, s Saver, f models.ExpedienteFilters) (string, error) {
	params := query.Of(query.Expedientes, f)
	params.Del("pagina")
	params.Del("tamanoPagina")
	fallback := fmt.Sprintf("expedientes_%s.xlsx", e.gw.Now().Format(time.DateOnly))
	return e.run(ctx, s, "/expedientes/export", params, fallback)
}

// ExportOneTo is ExportOne with a per-call Saver.
func (e *Exporter) ExportOneTo(ctx context.Context, s Saver, id int64) (string, error) {
	if id <= 0 {
		return "", gateway.Invalid("id", "El identificador del expediente no es válido")
	}
	fallback := fmt.Sprintf("expediente_%d_%s.xlsx", id, e.gw.Now().Format(time.DateOnly))
	return e.run(ctx, s, fmt.Sprintf("/expedientes/%d/export", id), nil, fallback)
}

func (e *Exporter) run(ctx context.Context, saver Saver, path string, params url.Values, fallback string) (string, error) {
	resp, err := e.gw.Download(ctx, path, params)
	if err != nil {
		// 401 and transport failures were already handled by the gateway.
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", e.failed(resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isSpreadsheet(contentType) {
		err := &gateway.Error{
			Kind:      gateway.KindExportFailed,
			Status:    resp.StatusCode,
			Message:   fmt.Sprintf("respuesta inesperada del servidor (%s)", orUnknown(contentType)),
			RequestID: requestID(resp),
		}
		e.notifyFailure("El servidor no devolvió un archivo Excel.")
		return "", err
	}

	name := Filename(resp.Header.Get("Content-Disposition"), fallback)
	saved, err := saver.Save(name, contentType, resp.Body)
	if err != nil {
		e.notifyFailure("No se pudo guardar el archivo.")
		return "", fmt.Errorf("saving export: %w", err)
	}

	e.log.Info("export saved", zap.String("path", path), zap.String("file", saved))
	e.gw.Notifier().Notify(notify.Notification{
		Title:       "Exportación completada",
		Description: fmt.Sprintf("Archivo %s descargado.", name),
		Variant:     notify.Success,
		At:          e.gw.Now(),
	})
	return saved, nil
}

// failed classifies a non-OK export response. The gateway performs the
// status side effects; the exporter adds wording for what it left silent.
func (e *Exporter) failed(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := e.gw.Interpret(resp.StatusCode, resp.Header, body, requestID(resp))

	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Kind {
	case gateway.KindRateLimited:
	case gateway.KindNotFound:
		e.notifyFailure("El expediente no existe o fue eliminado.")
	case gateway.KindRequest:
		gerr.Kind = gateway.KindExportFailed
		e.notifyFailure(gerr.Message)
	default:
		gerr.Kind = gateway.KindExportFailed
	}
	return gerr
}

func (e *Exporter) notifyFailure(description string) {
	e.gw.Notifier().Notify(notify.Notification{
		Title:       "Error al exportar",
		Description: description,
		Variant:     notify.Destructive,
		At:          e.gw.Now(),
	})
}

func isSpreadsheet(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(mediaType)
	return strings.Contains(mediaType, "spreadsheet") || strings.Contains(mediaType, "ms-excel")
}

var filenameRe = regexp.MustCompile(`(?i)filename\*?=(?:UTF-8'')?"?([^";]+)"?`)

// Filename picks the file name from a Content-Disposition header, falling
// back when the header is absent or names nothing usable. Only the base
// name is kept.
func Filename(disposition, fallback string) string {
	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := filenameRe.FindStringSubmatch(disposition); m != nil {
			name = m[1]
			if unescaped, err := url.PathUnescape(name); err == nil {
				name = unescaped
			}
		}
	}
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallback
	}
	return name
}

func requestID(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return resp.Request.Header.Get("X-Request-ID")
}

func orUnknown(s string) string {
	if s == "" {
		return "sin tipo de contenido"
	}
	return s
}
