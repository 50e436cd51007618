package matrix

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-rate-matrix/amount"
	"go-rate-matrix/domain"
)

// Metrics collectors for matrix operations
type Metrics struct {
	// RequestsTotal calls per method
	RequestsTotal *prometheus.CounterVec

	// ErrorsTotal failed calls per method and error kind
	ErrorsTotal *prometheus.CounterVec

	// IgnoredTotal calls carrying a zero rate
	IgnoredTotal *prometheus.CounterVec

	// RequestDuration latency per method
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the matrix collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_matrix_requests_total",
				Help: "Number of rate matrix calls",
			},
			[]string{"method"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_matrix_errors_total",
				Help: "Number of failed rate matrix calls",
			},
			[]string{"method", "kind"},
		),
		IgnoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_matrix_zero_rates_total",
				Help: "Number of writes ignored because the rate was zero",
			},
			[]string{"method"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_matrix_request_duration_seconds",
				Help:    "Duration of rate matrix calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs, 4µs, 16µs...
			},
			[]string{"method"},
		),
	}
}

// instrumentingService decorates a matrix.Service with metrics
type instrumentingService struct {
	metrics *Metrics
	next    Service
}

// NewInstrumentingService returns a new instance of an instrumenting Service
func NewInstrumentingService(metrics *Metrics, s Service) Service {
	return &instrumentingService{
		metrics: metrics,
		next:    s,
	}
}

func (s *instrumentingService) AddAsset(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) (err error) {
	defer s.observe("add_asset", time.Now(), rate.IsZero(), &err)
	return s.next.AddAsset(asset, reference, rate)
}

func (s *instrumentingService) UpdateRates(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) (err error) {
	defer s.observe("update_rates", time.Now(), rate.IsZero(), &err)
	return s.next.UpdateRates(asset, reference, rate)
}

func (s *instrumentingService) Rate(a *domain.Asset, b *domain.Asset) (rate amount.Amount, err error) {
	defer s.observe("rate", time.Now(), false, &err)
	return s.next.Rate(a, b)
}

func (s *instrumentingService) ContainsPair(a *domain.Asset, b *domain.Asset) bool {
	s.metrics.RequestsTotal.WithLabelValues("contains_pair").Inc()
	return s.next.ContainsPair(a, b)
}

func (s *instrumentingService) observe(method string, begin time.Time, zeroRate bool, err *error) {
	s.metrics.RequestsTotal.WithLabelValues(method).Inc()
	s.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(begin).Seconds())
	if *err != nil {
		s.metrics.ErrorsTotal.WithLabelValues(method, errorKind(*err)).Inc()
		return
	}
	if zeroRate {
		s.metrics.IgnoredTotal.WithLabelValues(method).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnknownAsset):
		return "unknown_asset"
	case errors.Is(err, ErrUnknownPair):
		return "unknown_pair"
	case errors.Is(err, amount.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, amount.ErrInvalidBasis):
		return "invalid_basis"
	case errors.Is(err, amount.ErrOverflow):
		return "overflow"
	default:
		return "other"
	}
}
