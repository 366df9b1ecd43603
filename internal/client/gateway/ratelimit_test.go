package gateway

import (
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseRateLimit(t *testing.T) {
	assert.Nil(t, ParseRateLimit(http.Header{}))

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "10")
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("Retry-After", "7")
	info := ParseRateLimit(h)
	if assert.NotNil(t, info) {
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 7, info.WaitSeconds(time.Now()))
	}
}

func TestWaitSeconds_RoundsUp(t *testing.T) {
	now := time.Unix(1000, 500_000_000)
	info := &RateLimitInfo{Reset: 1010}
	assert.Equal(t, 10, info.WaitSeconds(now))

	var none *RateLimitInfo
	assert.Equal(t, 0, none.WaitSeconds(now))
	assert.Equal(t, 0, (&RateLimitInfo{Reset: 900}).WaitSeconds(now))
}

func TestRateLimitMessage(t *testing.T) {
	now := time.Unix(0, 0)
	assert.Equal(t, "Demasiadas solicitudes. Intenta de nuevo más tarde.", RateLimitMessage("", nil, now))
	assert.Equal(t, "Espera. Intenta de nuevo en 90 segundos (~2 min).",
		RateLimitMessage("Espera.", &RateLimitInfo{RetryAfter: 90}, now))
}

func TestNormalize(t *testing.T) {
	payload, f := normalize([]byte(`{"success":true,"data":[1,2]}`))
	assert.Nil(t, f)
	assert.JSONEq(t, `[1,2]`, string(payload))

	payload, f = normalize([]byte(`[3]`))
	assert.Nil(t, f)
	assert.JSONEq(t, `[3]`, string(payload))

	_, f = normalize([]byte(`{"success":false,"message":"no"}`))
	if assert.NotNil(t, f) {
		assert.Equal(t, "no", f.message)
	}
}

func TestNormalize_EnvelopeSiblings(t *testing.T) {
	payload, f := normalize([]byte(`{"success":true,"message":"ok","data":[1],"total":1,"pagina":1}`))
	assert.Nil(t, f)
	assert.JSONEq(t, `{"data":[1],"total":1,"pagina":1}`, string(payload))

	payload, f = normalize([]byte(`{"success":true,"data":{"id":1},"meta":{}}`))
	assert.Nil(t, f)
	assert.JSONEq(t, `{"id":1}`, string(payload))
}

func TestExtractError_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", 299) + "ñandú"
	got := extractError([]byte(body)).message
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 299), got)

	assert.Equal(t, "Código inválido", extractError([]byte("Código inválido")).message)
}

func TestUnwrapData_LeavesListsAlone(t *testing.T) {
	list := []byte(`{"data":[{"id":1}],"total":1}`)
	assert.Equal(t, list, unwrapData(list))
	assert.JSONEq(t, `{"id":1}`, string(unwrapData([]byte(`{"data":{"id":1}}`))))
}
