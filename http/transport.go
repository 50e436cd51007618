package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"go-rate-matrix/domain"
	"go-rate-matrix/exchange"
	"go-rate-matrix/matrix"
)

// Server dependencies for HTTP Server functions
type Server struct {
	Service exchange.Service
	// Assets known assets by symbol
	Assets map[string]*domain.Asset
	router http.ServeMux
}

func NewServer(s exchange.Service, assets map[string]*domain.Asset) *Server {
	server := &Server{
		Service: s,
		Assets:  assets,
		router:  http.ServeMux{},
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("/api/convert", s.convert())
	s.router.Handle("/api/rate", s.rate())
}

// Handle registers an extra handler, e.g. for metrics
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.router.Handle(pattern, handler)
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// convert produces HTTP handler for asset conversions
func (s *Server) convert() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		FromCurrency string
		ToCurrency   string
		Amount       decimal.Decimal
	}

	// response for marshalling JSON responses to return to clients
	type response struct {
		Exchange string `json:"exchange"`
		Amount   string `json:"amount"`
		Original string `json:"original"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		rw.Header().Set("Content-Type", "application/json")

		bytes, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(rw, http.StatusBadRequest, "invalid request")
			return
		}

		var request request
		err = json.Unmarshal(bytes, &request)
		if err != nil {
			writeError(rw, http.StatusBadRequest, "invalid json")
			return
		}

		from, to, ok := s.lookup(rw, request.FromCurrency, request.ToCurrency)
		if !ok {
			return
		}

		result, err := s.Service.Convert(r.Context(), request.Amount, from, to)
		if err != nil {
			writeServiceError(rw, err, "failed conversion")
			return
		}

		writeJSON(rw, response{
			Exchange: result.Rate.Decimal().String(),
			Amount:   result.Amount.Decimal().StringFixed(to.Scale),
			Original: result.Original.Decimal().StringFixed(from.Scale),
		})
	}
}

// rate produces HTTP handler returning the rate between two assets
func (s *Server) rate() http.HandlerFunc {

	type response struct {
		From string `json:"from"`
		To   string `json:"to"`
		Rate string `json:"rate"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")

		query := r.URL.Query()
		from, to, ok := s.lookup(rw, query.Get("from"), query.Get("to"))
		if !ok {
			return
		}

		result, err := s.Service.Convert(r.Context(), decimal.NewFromInt(1), from, to)
		if err != nil {
			writeServiceError(rw, err, "failed rate lookup")
			return
		}

		writeJSON(rw, response{
			From: from.Symbol,
			To:   to.Symbol,
			Rate: result.Rate.Decimal().String(),
		})
	}
}

// lookup resolves both symbols, writing an error response when one is unknown
func (s *Server) lookup(rw http.ResponseWriter, from string, to string) (*domain.Asset, *domain.Asset, bool) {
	fromAsset, ok := s.Assets[from]
	if !ok {
		writeError(rw, http.StatusNotFound, "unknown currency: "+from)
		return nil, nil, false
	}
	toAsset, ok := s.Assets[to]
	if !ok {
		writeError(rw, http.StatusNotFound, "unknown currency: "+to)
		return nil, nil, false
	}
	return fromAsset, toAsset, true
}

func writeServiceError(rw http.ResponseWriter, err error, msg string) {
	if errors.Is(err, matrix.ErrUnknownPair) {
		writeError(rw, http.StatusNotFound, "no rate between currencies")
		return
	}
	writeError(rw, http.StatusBadRequest, msg)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(map[string]string{"error": msg})
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	enc := json.NewEncoder(rw)
	err := enc.Encode(v)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write([]byte(`{"error": "failed json encoding"}`))
		return
	}
}
