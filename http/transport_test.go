package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rate-matrix/amount"
	"go-rate-matrix/domain"
	"go-rate-matrix/exchange"
	"go-rate-matrix/matrix"
)

var (
	gbp = domain.MustAsset("GBP", "0.01", 2)
	foo = domain.MustAsset("FOO", "0.0001", 4)
)

type mock struct {
	t      *testing.T
	amount decimal.Decimal
	from   *domain.Asset
	to     *domain.Asset
}

func (m *mock) Observe(_ context.Context, _ domain.Quote) error {
	return nil
}

func (m *mock) Convert(_ context.Context, value decimal.Decimal, from *domain.Asset, to *domain.Asset) (domain.Exchanged, error) {
	assert.True(m.t, m.amount.Equal(value), "amount")
	assert.Equal(m.t, m.from, from, "from")
	assert.Equal(m.t, m.to, to, "to")
	return domain.Exchanged{
		Rate:     amount.Amount{Count: 20000, Basis: to.Basis},
		Original: amount.Amount{Count: 300, Basis: from.Basis},
		Amount:   amount.Amount{Count: 60000, Basis: to.Basis},
	}, nil
}

func TestServer_Convert(t *testing.T) {
	es := mock{
		t:      t,
		amount: decimal.NewFromInt(3),
		from:   gbp,
		to:     foo,
	}

	server := NewServer(&es, map[string]*domain.Asset{"GBP": gbp, "FOO": foo})

	w := httptest.NewRecorder()
	msg := `{"fromCurrency":"GBP", "toCurrency":"FOO","amount":3.0}`
	r := httptest.NewRequest("POST", "/api/convert", strings.NewReader(msg))

	server.ServeHTTP(w, r)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"exchange":"2","amount":"6.0000","original":"3.00"}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_Errors(t *testing.T) {
	m := matrix.New(log.NewNopLogger())
	s := exchange.NewService(m)
	require.NoError(t, s.Observe(context.Background(), domain.Quote{Base: gbp, Quote: foo, Rate: decimal.NewFromInt(4)}))
	bar := domain.MustAsset("BAR", "1", 0)

	server := NewServer(s, map[string]*domain.Asset{"GBP": gbp, "FOO": foo, "BAR": bar})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"invalid json", "POST", "/api/convert", `{"fromCurrency":`, 400},
		{"unknown currency", "POST", "/api/convert", `{"fromCurrency":"GBP","toCurrency":"XYZ","amount":1}`, 404},
		{"no rate", "POST", "/api/convert", `{"fromCurrency":"GBP","toCurrency":"BAR","amount":1}`, 404},
		{"rate unknown currency", "GET", "/api/rate?from=GBP&to=XYZ", "", 404},
		{"rate no rate", "GET", "/api/rate?from=BAR&to=GBP", "", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			server.ServeHTTP(w, r)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestServer_Rate(t *testing.T) {
	m := matrix.New(log.NewNopLogger())
	s := exchange.NewService(m)
	require.NoError(t, s.Observe(context.Background(), domain.Quote{Base: gbp, Quote: foo, Rate: decimal.RequireFromString("4.5")}))

	server := NewServer(s, map[string]*domain.Asset{"GBP": gbp, "FOO": foo})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/rate?from=GBP&to=FOO", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"from":"GBP","to":"FOO","rate":"4.5"}`, strings.TrimSpace(w.Body.String()))

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/rate?from=FOO&to=GBP", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"from":"FOO","to":"GBP","rate":"0.22"}`, strings.TrimSpace(w.Body.String()))
}
