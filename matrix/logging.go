package matrix

import (
	"time"

	"github.com/go-kit/log"

	"go-rate-matrix/amount"
	"go-rate-matrix/domain"
)

// loggingService decorates a matrix.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) AddAsset(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "add_asset",
			"asset", asset,
			"reference", reference,
			"rate", rate,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.AddAsset(asset, reference, rate)
}

func (s *loggingService) UpdateRates(asset *domain.Asset, reference *domain.Asset, rate amount.Amount) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "update_rates",
			"asset", asset,
			"reference", reference,
			"rate", rate,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpdateRates(asset, reference, rate)
}

func (s *loggingService) Rate(a *domain.Asset, b *domain.Asset) (rate amount.Amount, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "rate",
			"from", a,
			"to", b,
			"rate", rate,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Rate(a, b)
}

func (s *loggingService) ContainsPair(a *domain.Asset, b *domain.Asset) bool {
	return s.next.ContainsPair(a, b)
}
