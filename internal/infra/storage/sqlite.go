package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"portfolio_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface for data persistence
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance. An empty path resolves
// the database file under the user config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		var err error
		path, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	return open(path)
}

// NewMemoryStorage creates an in-memory store, used by tests.
func NewMemoryStorage() (*Storage, error) {
	return open(":memory:")
}

func open(dsn string) (*Storage, error) {
	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(
		&domain.Portfolio{},
		&domain.Asset{},
		&domain.Trade{},
		&domain.ActionEntry{},
		&domain.QuotePoint{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "FolioGo", "data", "folio.db"), nil
}

// ======================================================================================
// Portfolio Operations
// ======================================================================================

// CreatePortfolio persists a new portfolio.
func (s *Storage) CreatePortfolio(p *domain.Portfolio) error {
	return s.db.Create(p).Error
}

// GetPortfolio retrieves a portfolio with its assets and trades.
func (s *Storage) GetPortfolio(id uint) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := s.db.Preload("Assets").Preload("Trades").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &p, err
}

// ListPortfolios retrieves portfolios with their assets, paginated.
func (s *Storage) ListPortfolios(offset, limit int) ([]domain.Portfolio, error) {
	if limit <= 0 {
		limit = 100
	}
	var portfolios []domain.Portfolio
	err := s.db.Preload("Assets").Offset(offset).Limit(limit).Find(&portfolios).Error
	return portfolios, err
}

// ======================================================================================
// Asset Operations
// ======================================================================================

// CreateAsset adds an asset to a portfolio.
func (s *Storage) CreateAsset(a *domain.Asset) error {
	return s.db.Create(a).Error
}

// GetAsset retrieves one asset by id.
func (s *Storage) GetAsset(id uint) (*domain.Asset, error) {
	var a domain.Asset
	err := s.db.First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &a, err
}

// UpdateAsset saves asset changes.
func (s *Storage) UpdateAsset(a *domain.Asset) error {
	return s.db.Save(a).Error
}

// UpdateAssetPrices sets the current price on every asset with the symbol.
func (s *Storage) UpdateAssetPrices(symbol string, price decimal.Decimal) error {
	return s.db.Model(&domain.Asset{}).
		Where("symbol = ?", symbol).
		Updates(map[string]any{"current_price": price, "updated_at": time.Now()}).Error
}

// ListSymbols returns the distinct symbols held across all portfolios.
func (s *Storage) ListSymbols() ([]string, error) {
	var symbols []string
	err := s.db.Model(&domain.Asset{}).Distinct("symbol").Pluck("symbol", &symbols).Error
	return symbols, err
}

// ======================================================================================
// Trade Operations
// ======================================================================================

// ExecuteTrade persists a trade and adjusts the asset quantity atomically.
// Sells beyond the held quantity fail with domain.ErrInsufficientShares.
func (s *Storage) ExecuteTrade(t *domain.Trade) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var asset domain.Asset
		if err := tx.First(&asset, t.AssetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		switch t.TradeType {
		case domain.TradeTypeBuy:
			asset.Quantity = asset.Quantity.Add(t.Quantity)
		case domain.TradeTypeSell:
			if asset.Quantity.LessThan(t.Quantity) {
				return domain.ErrInsufficientShares
			}
			asset.Quantity = asset.Quantity.Sub(t.Quantity)
		default:
			return fmt.Errorf("unknown trade type: %s", t.TradeType)
		}

		t.Status = domain.TradeStatusExecuted
		if t.ExecutionTime.IsZero() {
			t.ExecutionTime = time.Now()
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return tx.Save(&asset).Error
	})
}

// ListTrades retrieves a portfolio's trades, newest first.
func (s *Storage) ListTrades(portfolioID uint) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("execution_time DESC").Find(&trades).Error
	return trades, err
}

// ======================================================================================
// Action Log Operations
// ======================================================================================

// RecordAction appends one row to the action log.
func (s *Storage) RecordAction(kind, detail string) error {
	return s.db.Create(&domain.ActionEntry{Kind: kind, Detail: detail}).Error
}

// ListActions retrieves action log entries, newest first.
func (s *Storage) ListActions(limit int) ([]domain.ActionEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []domain.ActionEntry
	err := s.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// ClearActions deletes every action log entry.
func (s *Storage) ClearActions() error {
	return s.db.Where("1 = 1").Delete(&domain.ActionEntry{}).Error
}

// ======================================================================================
// Quote History Operations
// ======================================================================================

// SaveQuotePoint persists one quote observation.
func (s *Storage) SaveQuotePoint(q *domain.QuotePoint) error {
	return s.db.Create(q).Error
}

// GetQuoteHistory retrieves quote points for a symbol over the last days,
// oldest first.
func (s *Storage) GetQuoteHistory(symbol string, days int) ([]domain.QuotePoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []domain.QuotePoint
	err := s.db.Where("symbol = ? AND at >= ?", symbol, since).
		Order("at ASC").Find(&points).Error
	return points, err
}
