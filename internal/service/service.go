package service

import (
	"incrementum/config"
	"incrementum/internal/repository"
	"incrementum/pkg/cache"
	"incrementum/pkg/logger"
	"incrementum/pkg/utils"
)

type Service struct {
	ScreenerService  ScreenerService
	HistoryService   HistoryService
	MetricService    MetricService
	SchedulerService SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
) *Service {
	now := utils.Clock(utils.TimeNowUTC)

	metricService := NewMetricService(cfg, log, now, inmemoryCache, repo.SymbolRepo, repo.BarRepo)
	return &Service{
		ScreenerService:  NewScreenerService(log, repo.SymbolRepo),
		HistoryService:   NewHistoryService(cfg, log, now, inmemoryCache, repo.BarRepo, repo.SymbolRepo, repo.MarketData, repo.UnitOfWork),
		MetricService:    metricService,
		SchedulerService: NewSchedulerService(cfg, log, now, metricService),
	}
}
