// Package service holds the resource clients of the expedientes service.
//
// Each client validates its input before going to the network, maps
// filters through the query mapper and returns the models the gateway
// decoded. Failures are the gateway's typed errors.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/expedientes/internal/client/gateway"
)

// API is the request surface of gateway.Client used by the resource
// clients.
type API interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

func length(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func between(field, label, value string, min, max int) error {
	n := length(value)
	if n == 0 {
		return gateway.Invalid(field, label+" es obligatorio")
	}
	if n < min || n > max {
		return gateway.Invalid(field, fmt.Sprintf("%s debe tener entre %d y %d caracteres", label, min, max))
	}
	return nil
}

func atMost(field, label, value string, max int) error {
	if length(value) > max {
		return gateway.Invalid(field, fmt.Sprintf("%s no puede superar %d caracteres", label, max))
	}
	return nil
}

func validID(field string, id int64) error {
	if id <= 0 {
		return gateway.Invalid(field, "El identificador no es válido")
	}
	return nil
}
