package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"go-rate-matrix/amount"
	"go-rate-matrix/domain"
	"go-rate-matrix/matrix"
)

// Service feeds observed quotes into a rate matrix and converts amounts with it
type Service interface {
	Observe(ctx context.Context, quote domain.Quote) error
	Convert(ctx context.Context, value decimal.Decimal, from *domain.Asset, to *domain.Asset) (domain.Exchanged, error)
}

// service exchange backed by a rate matrix
type service struct {
	// rates the matrix holding every known rate. rates must be concurrency-safe
	rates matrix.Service

	// rounding shared with the matrix
	rounding amount.Rounding
}

// NewService constructs a valid Service
func NewService(rates matrix.Service) Service {
	return &service{
		rates:    rates,
		rounding: amount.DefaultRounding,
	}
}

// Observe records 1 quote.Base = quote.Rate quote.Quote.
// The first quote of a pair links the base to the quote asset, every quote then
// re-derives the cross rates of the base through the quote asset.
func (s *service) Observe(_ context.Context, quote domain.Quote) error {
	if quote.Base == nil || quote.Quote == nil {
		return fmt.Errorf("observe: %w", matrix.ErrInvalidArgument)
	}
	rate, err := amount.FromDecimal(quote.Rate, quote.Quote.Basis, s.rounding)
	if err != nil {
		return fmt.Errorf("observe [%v/%v]: %w", quote.Base, quote.Quote, err)
	}
	if rate.IsZero() {
		return nil
	}

	// Note there is a race condition here in that concurrent first quotes for the same pair
	// will both add the pair. This is harmless, the second AddAsset writes the same entries
	// and the UpdateRates that follows derives from whichever rate was written last.
	_, err = s.rates.Rate(quote.Quote, quote.Base)
	if errors.Is(err, matrix.ErrUnknownPair) {
		if err := s.rates.AddAsset(quote.Base, quote.Quote, rate); err != nil {
			return fmt.Errorf("observe [%v/%v]: %w", quote.Base, quote.Quote, err)
		}
	} else if err != nil {
		return fmt.Errorf("observe [%v/%v]: %w", quote.Base, quote.Quote, err)
	}

	if err := s.rates.UpdateRates(quote.Base, quote.Quote, rate); err != nil {
		return fmt.Errorf("observe [%v/%v]: %w", quote.Base, quote.Quote, err)
	}
	return nil
}

// Convert computes value of from expressed in to, rounded to the basis of to.
func (s *service) Convert(_ context.Context, value decimal.Decimal, from *domain.Asset, to *domain.Asset) (domain.Exchanged, error) {
	if from == nil || to == nil {
		return domain.Exchanged{}, fmt.Errorf("convert: %w", matrix.ErrInvalidArgument)
	}
	rate, err := s.rates.Rate(from, to)
	if err != nil {
		return domain.Exchanged{}, fmt.Errorf("convert from [%v] to [%v]: %w", from, to, err)
	}

	original, err := amount.FromDecimal(value, from.Basis, s.rounding)
	if err != nil {
		return domain.Exchanged{}, fmt.Errorf("convert from [%v]: %w", from, err)
	}

	converted, err := amount.Times(rate, original, s.rounding)
	if err != nil {
		return domain.Exchanged{}, fmt.Errorf("convert from [%v] to [%v]: %w", from, to, err)
	}

	return domain.Exchanged{
		Rate:     rate,
		Original: original,
		Amount:   converted,
	}, nil
}
