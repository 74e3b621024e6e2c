package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadp "github.com/andreolf/clawloan/internal/adapter/http"
	mw "github.com/andreolf/clawloan/internal/adapter/middleware"
	"github.com/andreolf/clawloan/internal/adapter/repository/mysql"
	"github.com/andreolf/clawloan/internal/config"
	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/internal/infrastructure/cache"
	"github.com/andreolf/clawloan/internal/infrastructure/db"
	"github.com/andreolf/clawloan/internal/infrastructure/logging"
	"github.com/andreolf/clawloan/internal/infrastructure/metrics"
	activityuc "github.com/andreolf/clawloan/internal/usecase/activity"
	botuc "github.com/andreolf/clawloan/internal/usecase/bot"
	credituc "github.com/andreolf/clawloan/internal/usecase/credit"
	"github.com/andreolf/clawloan/internal/usecase/ledger"
	"github.com/andreolf/clawloan/internal/usecase/loan"
	"github.com/andreolf/clawloan/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clawloan:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return err
	}
	if err := mysql.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.Default()
	tiers, err := cfg.Market.TierTable()
	if err != nil {
		return err
	}
	model := rate.NewModel(cfg.Market.RateParams())
	tx := mysql.NewGormUoW(gdb)

	ledgerUC := ledger.NewUsecase(tx, ledger.Config{
		PoolID:   cfg.PoolID,
		Asset:    cfg.Market.Asset,
		Decimals: cfg.Market.Decimals,
		Model:    model,
		Logger:   log,
		Metrics:  m,
	})
	if _, err := ledgerUC.EnsurePool(ctx); err != nil {
		return fmt.Errorf("ensure pool: %w", err)
	}
	if err := ledgerUC.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile pool: %w", err)
	}
	repayUC := repayment.NewUsecase(tx, repayment.Config{
		PoolID:         cfg.PoolID,
		Model:          model,
		ProfitShareBps: cfg.Market.ProfitShareBps,
		Logger:         log,
		Metrics:        m,
	})

	h := httpadp.NewHandler(httpadp.Deps{
		Ledger: ledgerUC,
		Loans: loan.NewUsecase(tx, loan.Config{
			PoolID:  cfg.PoolID,
			Model:   model,
			Tiers:   tiers,
			Term:    cfg.Market.LoanTerm,
			Logger:  log,
			Metrics: m,
		}),
		Repayment: repayUC,
		Bots: botuc.NewUsecase(tx, botuc.Config{
			DefaultMaxSpend: cfg.Market.MaxSpend(),
			DefaultTTL:      cfg.Market.DefaultExpiry,
			Logger:          log,
		}),
		Credit: credituc.NewUsecase(tx, cache.NewJSONCache(rdb, "clawloan:"+cfg.PoolID+":"), credituc.Config{
			Tiers:  tiers,
			Logger: log,
		}),
		Activity: activityuc.NewUsecase(tx, activityuc.Config{PoolID: cfg.PoolID, Logger: log}),
		Ping:     sqlDB.PingContext,
		Logger:   log,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestID(), mw.RequestLogger(log, m), middleware.Recover())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpadp.Register(e, h, mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log))

	if cfg.SweepEverySecs > 0 {
		go sweepLoop(ctx, repayUC, time.Duration(cfg.SweepEverySecs)*time.Second, log)
	}

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr), zap.String("pool_id", cfg.PoolID), zap.String("db", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// sweepLoop liquidates overdue loans on a fixed period until ctx ends.
func sweepLoop(ctx context.Context, uc *repayment.Usecase, every time.Duration, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			res, err := uc.SweepOverdue(ctx)
			if err != nil {
				log.Error("overdue sweep", zap.Error(err))
			}
			if res != nil && len(res.Liquidated) > 0 {
				log.Info("overdue sweep", zap.Int("scanned", res.Scanned), zap.Int("liquidated", len(res.Liquidated)))
			}
		}
	}
}
