package service

import (
	"context"
	"fmt"

	"incrementum/internal/dto"
	"incrementum/internal/repository"
	"incrementum/internal/screener"
	"incrementum/pkg/logger"
)

type ScreenerService interface {
	Screen(ctx context.Context, param dto.ScreenParam) (*dto.ScreenResult, error)
}

type screenerService struct {
	log        *logger.Logger
	symbolRepo repository.SymbolRepository
}

func NewScreenerService(log *logger.Logger, symbolRepo repository.SymbolRepository) ScreenerService {
	return &screenerService{log: log, symbolRepo: symbolRepo}
}

// Screen validates and compiles the filters before touching the store. The
// returned error wraps screener.ErrInvalidFilter for bad input.
func (s *screenerService) Screen(ctx context.Context, param dto.ScreenParam) (*dto.ScreenResult, error) {
	criteria, err := screener.ParseCriteria(param.Filters)
	if err != nil {
		return nil, err
	}
	query, err := screener.BuildQuery(criteria, param.SortBy, param.SortOrder, param.Page, param.PageSize)
	if err != nil {
		return nil, err
	}

	records, total, err := s.symbolRepo.Screen(ctx, query)
	if err != nil {
		s.log.ErrorContext(ctx, "Screen query failed", logger.ErrorField(err), logger.IntField("filter_count", len(criteria)))
		return nil, fmt.Errorf("failed to screen symbols: %w", err)
	}

	result := &dto.ScreenResult{
		Records:    records,
		TotalCount: total,
	}
	if query.Limit > 0 {
		result.Page = query.Offset/query.Limit + 1
		result.PageSize = query.Limit
	}
	return result, nil
}
