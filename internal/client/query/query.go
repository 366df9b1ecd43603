// Package query translates caller-side filter objects into the query
// parameters the expedientes service expects. It is the only place where
// the page/pageSize and pagina/tamanoPagina conventions meet.
package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Resource selects the allow-list used by Map.
type Resource int

const (
	Expedientes Resource = iota
	Indicios
	Usuarios
)

// aliases maps caller-side pagination names to the wire names.
var aliases = map[string]string{
	"page":     "pagina",
	"pageSize": "tamanoPagina",
}

var allowed = map[Resource][]string{
	Expedientes: {"pagina", "tamanoPagina", "q", "estado", "tecnicoId", "fechaInicio", "fechaFin"},
	Indicios:    {"pagina", "tamanoPagina", "activo"},
	Usuarios:    {"pagina", "tamanoPagina", "q", "rol", "activo"},
}

// Map returns the wire parameters for in. Keys outside the resource's
// allow-list are dropped, nil values are omitted and everything else is
// stringified. When both a caller-side alias and its wire name are
// defined, the wire name wins.
func Map(r Resource, in map[string]any) url.Values {
	out := url.Values{}
	if len(in) == 0 {
		return out
	}

	normalized := make(map[string]any, len(in))
	for k, v := range in {
		if wire, ok := aliases[k]; ok {
			if wv, direct := in[wire]; direct && defined(wv) {
				continue
			}
			k = wire
		}
		if _, taken := normalized[k]; taken && !defined(v) {
			continue
		}
		normalized[k] = v
	}

	for _, key := range allowed[r] {
		v, ok := normalized[key]
		if !ok {
			continue
		}
		if s, ok := stringify(v); ok {
			out.Set(key, s)
		}
	}
	return out
}

// Fielder is implemented by the typed filter structs in models.
type Fielder interface {
	Fields() map[string]any
}

// Of maps a typed filter. A nil filter yields no parameters.
func Of(r Resource, f Fielder) url.Values {
	if f == nil {
		return url.Values{}
	}
	return Map(r, f.Fields())
}

func defined(v any) bool {
	_, ok := stringify(v)
	return ok
}

func stringify(v any) (string, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		v = rv.Elem().Interface()
	}
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// Parse turns shell arguments of the form key=value into a loose filter
// map. Arguments without '=' are ignored.
func Parse(args []string) map[string]any {
	m := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}
