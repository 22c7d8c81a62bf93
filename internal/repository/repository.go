package repository

import (
	"incrementum/config"
	"incrementum/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	SymbolRepo SymbolRepository
	BarRepo    BarRepository
	MarketData MarketDataProvider
	UnitOfWork UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		SymbolRepo: NewSymbolRepository(db),
		BarRepo:    NewBarRepository(db),
		MarketData: NewYahooFinanceRepository(cfg, log),
		UnitOfWork: NewUnitOfWork(db),
	}
}
