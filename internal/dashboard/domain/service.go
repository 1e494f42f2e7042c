package domain

import (
	"context"
	"errors"
)

const (
	DefaultCollectionMonths = 6
	MaxCollectionMonths     = 24
)

// Service exposes the caller's invoicing aggregates.
type Service interface {
	Summary(ctx context.Context) (SummaryResponse, error)
	Collections(ctx context.Context, req CollectionsRequest) (CollectionsResponse, error)
}

var (
	ErrInvalidMonths = errors.New("invalid_months")
)
