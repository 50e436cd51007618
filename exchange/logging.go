package exchange

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/shopspring/decimal"

	"go-rate-matrix/domain"
)

// loggingService decorates an exchange.Service with logging
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

func (s *loggingService) Observe(ctx context.Context, quote domain.Quote) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "observe",
			"base", quote.Base,
			"quote", quote.Quote,
			"rate", quote.Rate,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Observe(ctx, quote)
}

func (s *loggingService) Convert(ctx context.Context, value decimal.Decimal, from *domain.Asset, to *domain.Asset) (ex domain.Exchanged, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "convert",
			"amount", value,
			"from", from,
			"to", to,
			"rate", ex.Rate,
			"converted_amount", ex.Amount,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Convert(ctx, value, from, to)
}
