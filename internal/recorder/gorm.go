package recorder

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tradeRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Timestamp    time.Time `gorm:"index;not null"`
	Symbol       string    `gorm:"index;size:32;not null"`
	Side         string    `gorm:"size:8;not null"`
	Quantity     string    `gorm:"type:numeric;not null"`
	Price        string    `gorm:"type:numeric;not null"`
	Status       string    `gorm:"size:16"`
	BalanceAfter string    `gorm:"type:numeric"`
}

func (tradeRow) TableName() string { return "trades" }

type snapshotRow struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index;not null"`
	Balance   string    `gorm:"type:numeric"`
	Equity    string    `gorm:"type:numeric"`
	Positions int
	Trades    int
}

func (snapshotRow) TableName() string { return "portfolio_snapshots" }

type fetchRow struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index;not null"`
	Symbol    string    `gorm:"size:32;not null"`
	Source    string    `gorm:"size:32"`
	Fallbacks int
	Error     string
}

func (fetchRow) TableName() string { return "fetch_events" }

// GormRecorder persists the same history as SQLiteRecorder to PostgreSQL through gorm.
type GormRecorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresRecorder connects to dsn and migrates the history tables.
func NewPostgresRecorder(dsn string, log *zap.Logger) (*GormRecorder, error) {
	return NewGormRecorder(postgres.Open(dsn), log)
}

// NewGormRecorder opens dialector and migrates the history tables.
func NewGormRecorder(dialector gorm.Dialector, log *zap.Logger) (*GormRecorder, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&tradeRow{}, &snapshotRow{}, &fetchRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("gorm recorder opened", zap.String("dialect", dialector.Name()))
	return &GormRecorder{db: db, logger: log}, nil
}

func (r *GormRecorder) RecordTrade(evt *TradeEvent) error {
	t := evt.Trade
	return r.db.Create(&tradeRow{
		ID:           t.ID,
		Timestamp:    stamp(t.Timestamp),
		Symbol:       t.Symbol,
		Side:         string(t.Side),
		Quantity:     t.Quantity.String(),
		Price:        t.Price.String(),
		Status:       string(t.Status),
		BalanceAfter: evt.BalanceAfter.String(),
	}).Error
}

func (r *GormRecorder) RecordSnapshot(snap *PortfolioSnapshot) error {
	return r.db.Create(&snapshotRow{
		Timestamp: stamp(snap.Timestamp),
		Balance:   snap.Balance.String(),
		Equity:    snap.Equity.String(),
		Positions: snap.Positions,
		Trades:    snap.Trades,
	}).Error
}

func (r *GormRecorder) RecordFetch(evt *FetchEvent) error {
	return r.db.Create(&fetchRow{
		Timestamp: stamp(evt.Timestamp),
		Symbol:    evt.Symbol,
		Source:    evt.Source,
		Fallbacks: evt.Fallbacks,
		Error:     evt.Error,
	}).Error
}

func (r *GormRecorder) Close() error {
	r.logger.Info("closing gorm recorder")
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
