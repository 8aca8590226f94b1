package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio_go/internal/app"
	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/quotes"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, *configPath)
	if err != nil {
		slog.Error("bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}

	if addr := a.Config.Server.PprofAddr; addr != "" {
		go func() {
			a.Logger.Info("pprof listening", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, nil); err != nil {
				a.Logger.Warn("pprof server stopped", slog.Any("error", err))
			}
		}()
	}

	go a.SyncLogos(ctx)

	// Persist each polled quote and push the price onto held assets.
	onQuotes := func(batch []domain.Quote) {
		for _, q := range batch {
			a.Metrics.RecordQuoteFetch()
			if err := a.Storage.SaveQuotePoint(&domain.QuotePoint{
				Symbol:    q.Symbol,
				Price:     q.Price,
				ChangePct: q.ChangePct,
				Volume:    q.Volume,
				At:        q.At,
			}); err != nil {
				a.Logger.Warn("failed to save quote point",
					slog.String("symbol", q.Symbol), slog.Any("error", err))
			}
			if err := a.Storage.UpdateAssetPrices(q.Symbol, q.Price); err != nil {
				a.Logger.Warn("failed to update asset prices",
					slog.String("symbol", q.Symbol), slog.Any("error", err))
			}
		}
	}

	poller := quotes.NewPoller(a.Quotes, a.Config.API.Quotes.Symbols,
		a.Config.API.Quotes.PollIntervalSec, onQuotes)
	if err := poller.Start(ctx); err != nil {
		a.Logger.Error("failed to start quote poller", slog.Any("error", err))
		os.Exit(1)
	}
	defer poller.Stop()

	var stream *quotes.StreamWorker
	if a.Config.API.Quotes.StreamURL != "" {
		stream = quotes.NewStreamWorker(a.Config, a.Metrics, func(q domain.Quote) {
			onQuotes([]domain.Quote{q})
		})
		if err := stream.Connect(ctx); err != nil {
			a.Logger.Warn("quote stream unavailable", slog.Any("error", err))
		} else {
			defer stream.Disconnect()
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Server.Start()
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			a.Logger.Error("server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("graceful shutdown failed", slog.Any("error", err))
	}
	a.Logger.Info("stopped")
}
