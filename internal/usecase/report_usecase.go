package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/domain"
)

// ReportUseCase derives report aggregates from a user's ledger.
// Results are cached per ledger revision, so a mutation never serves a stale report.
type ReportUseCase struct {
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewReportUseCase creates a new ReportUseCase. cache may be nil.
func NewReportUseCase(cache Cache, ttl time.Duration, logger zerolog.Logger) *ReportUseCase {
	if ttl <= 0 {
		ttl = DefaultReportCacheTTL
	}

	return &ReportUseCase{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// MonthlySeries returns income and expense totals per month.
func (uc *ReportUseCase) MonthlySeries(ctx context.Context, ledger LedgerReader) (*domain.MonthlySeries, error) {
	var series domain.MonthlySeries

	err := uc.cached(ctx, ledger, "monthly", &series, func(txns []domain.Transaction) any {
		series = domain.BuildMonthlySeries(txns)
		return series
	})
	if err != nil {
		return nil, err
	}

	return &series, nil
}

// CategoryBreakdown returns expense totals per category.
func (uc *ReportUseCase) CategoryBreakdown(ctx context.Context, ledger LedgerReader) (*domain.CategoryBreakdown, error) {
	var breakdown domain.CategoryBreakdown

	err := uc.cached(ctx, ledger, "categories", &breakdown, func(txns []domain.Transaction) any {
		breakdown = domain.BuildCategoryBreakdown(txns)
		return breakdown
	})
	if err != nil {
		return nil, err
	}

	return &breakdown, nil
}

func (uc *ReportUseCase) cached(
	ctx context.Context,
	ledger LedgerReader,
	report string,
	dst any,
	compute func([]domain.Transaction) any,
) error {
	key := "report:" + ledger.UserID() + ":" + ledger.Revision() + ":" + report

	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, key)
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(raw, dst); jsonErr == nil {
				return nil
			}
			uc.logger.Warn().Str("key", key).Msg("discarding undecodable cached report")
		case !errors.Is(err, ErrCacheMiss):
			uc.logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		}
	}

	data, err := ledger.Snapshot()
	if err != nil {
		return err
	}

	value := compute(data.Transactions)

	if uc.cache != nil {
		raw, err := json.Marshal(value)
		if err == nil {
			err = uc.cache.Set(ctx, key, raw, uc.ttl)
		}
		if err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
		}
	}

	return nil
}
