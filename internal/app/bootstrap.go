// Package app wires configuration, storage, providers and services together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"portfolio_go/internal/api"
	"portfolio_go/internal/infra"
	"portfolio_go/internal/infra/llm"
	"portfolio_go/internal/infra/logos"
	"portfolio_go/internal/infra/news"
	"portfolio_go/internal/infra/quotes"
	"portfolio_go/internal/infra/storage"
	"portfolio_go/internal/service"
)

// App holds every long-lived component of the backend process.
type App struct {
	Config  *infra.Config
	Logger  *slog.Logger
	Metrics *infra.Metrics
	Storage *storage.Storage

	Quotes *quotes.Client
	News   *news.Client
	Logos  *logos.Downloader

	Portfolio *service.PortfolioService
	Risk      *service.RiskService
	Optimizer *service.OptimizerService
	Market    *service.MarketService
	Chat      *service.ChatService

	Server *api.Server
}

// Bootstrap loads config and assembles the application.
func Bootstrap(ctx context.Context, configPath string) (*App, error) {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("bootstrapping",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)

	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	downloader, err := logos.NewDownloader()
	if err != nil {
		logger.Warn("logo cache unavailable", slog.Any("error", err))
	}

	metrics := &infra.Metrics{}
	quoteClient := quotes.NewClient(cfg)
	newsClient := news.NewClient(cfg)

	portfolioSvc := service.NewPortfolioService(store)
	riskSvc := service.NewRiskService(store, cfg.Dashboard.RiskThreshold)
	optimizerSvc := service.NewOptimizerService(store)
	marketSvc := service.NewMarketService(quoteClient,
		time.Duration(cfg.Dashboard.CacheTTLSec)*time.Second)

	// Chat degrades gracefully without credentials: the endpoint reports the
	// missing configuration instead of the process refusing to start.
	var completer llm.Completer
	if gem, err := llm.NewClient(ctx, cfg); err != nil {
		logger.Warn("language model unavailable, chat disabled", slog.Any("error", err))
	} else {
		completer = gem
	}
	chatSvc := service.NewChatService(completer, marketSvc, portfolioSvc, store)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Storage:   store,
		Quotes:    quoteClient,
		News:      newsClient,
		Logos:     downloader,
		Portfolio: portfolioSvc,
		Risk:      riskSvc,
		Optimizer: optimizerSvc,
		Market:    marketSvc,
		Chat:      chatSvc,
	}
	a.Server = api.NewServer(api.Deps{
		Config:    cfg,
		Store:     store,
		Portfolio: portfolioSvc,
		Risk:      riskSvc,
		Optimizer: optimizerSvc,
		Market:    marketSvc,
		Chat:      chatSvc,
		News:      newsClient,
		Metrics:   metrics,
	})
	return a, nil
}

// SyncLogos downloads missing logos for every held symbol, a few at a time.
func (a *App) SyncLogos(ctx context.Context) {
	if a.Logos == nil {
		return
	}
	symbols, err := a.Storage.ListSymbols()
	if err != nil {
		a.Logger.Warn("failed to list symbols for logo sync", slog.Any("error", err))
		return
	}

	sem := make(chan struct{}, 4)
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := a.Logos.DownloadLogo(symbol); err != nil {
				a.Logger.Debug("logo download failed",
					slog.String("symbol", symbol), slog.Any("error", err))
			}
		}(symbol)
	}
	wg.Wait()
	a.Logger.Info("logo sync finished", slog.Int("symbols", len(symbols)))
}
