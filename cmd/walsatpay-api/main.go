package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"

	"github.com/walsatpay/walsatpay/config"
	"github.com/walsatpay/walsatpay/engine"
	"github.com/walsatpay/walsatpay/engine/orchestrator"
	"github.com/walsatpay/walsatpay/engine/worker"
	"github.com/walsatpay/walsatpay/httputils"
	"github.com/walsatpay/walsatpay/provider"
	"github.com/walsatpay/walsatpay/provider/bank"
	"github.com/walsatpay/walsatpay/provider/flutterwave"
	"github.com/walsatpay/walsatpay/provider/stripe"
	"github.com/walsatpay/walsatpay/services/notifier"
	"github.com/walsatpay/walsatpay/services/payments"
	"github.com/walsatpay/walsatpay/store"
)

var (
	VERSION = "dev"

	onLoggerDev         = flag.Bool("logger-dev", false, "Enable development logger.")
	onLoggerDebugLevelF = flag.Bool("logger-debug-level", false, "Enable debug level logger.")
)

func main() {
	var wg sync.WaitGroup
	flag.Parse()
	level := "INFO"
	if *onLoggerDebugLevelF {
		level = "DEBUG"
	}
	defaultLogger(level, *onLoggerDev)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zap.L().Info("Starting payment service...", zap.String("version", VERSION))
	defer func() { zap.L().Info("Done.") }()

	cfg := config.Load()

	sqlDB := setupPostgres(cfg.DatabaseURL, 0, 5, 5)
	db := reform.NewDB(sqlDB, postgresql.Dialect, reform.NewPrintfLogger(zap.L().Sugar().Debugf))

	var receipts orchestrator.Notifier = notifier.NopNotifier{}
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(
			cfg.NATSURL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(time.Second),
		)
		if err != nil {
			zap.L().Panic("Failed to connect to NATS.", zap.Error(err))
		}
		defer nc.Close()
		zap.L().Info("NATS - Connected!")
		receipts = notifier.NewNATSNotifier(nc)

		if cfg.SendGrid.APIKey != "" {
			mailer := notifier.NewSendGridMailer(notifier.SendGridConfig{
				APIKey:    cfg.SendGrid.APIKey,
				FromEmail: cfg.SendGrid.FromEmail,
				FromName:  cfg.SendGrid.FromName,
			})
			sub, err := notifier.SubToNATS(nc, db, mailer)
			if err != nil {
				zap.L().Panic("Failed subscribe receipt worker.", zap.Error(err))
			}
			defer func() { _ = sub.Unsubscribe() }()
		}
	}

	reg := provider.Registry{}
	if cfg.Stripe.SecretKey != "" {
		reg.Register(stripe.NewGateway(db, stripe.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		}))
	}
	if cfg.Flutterwave.SecretKey != "" {
		fwCfg := flutterwave.Config{
			EntrypointURL: cfg.Flutterwave.EntrypointURL,
			SecretKey:     cfg.Flutterwave.SecretKey,
			WebhookHash:   cfg.Flutterwave.WebhookHash,
		}
		reg.Register(flutterwave.NewGateway(db, fwCfg, engine.FLUTTERWAVE))
		reg.Register(flutterwave.NewGateway(db, fwCfg, engine.MPESA))
	}
	if cfg.Bank.WebhookSecret != "" {
		reg.Register(bank.NewGateway(db, bank.Config{
			WebhookSecret: cfg.Bank.WebhookSecret,
		}))
	}

	invoices := store.NewInvoicesPostgres(db)
	paymentsStore := store.NewPaymentsPostgres(db)
	events := store.NewEventsPostgres(db)

	orc := orchestrator.New(orchestrator.Config{
		PublicBaseURL:  cfg.PublicBaseURL,
		SessionTimeout: cfg.SessionTimeout,
	}, invoices, paymentsStore, events, reg, receipts)

	expirer := worker.NewExpirer(worker.ExpirerConfig{
		Interval:   time.Minute,
		PendingTTL: cfg.PendingTTL,
	}, paymentsStore, events)
	wg.Add(1)
	go func() {
		defer wg.Done()
		expirer.Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echo_middleware.Recover())
	e.Use(echo_middleware.Logger())
	e.Use(echo_middleware.BodyLimit("64K"))

	svc := payments.NewService(orc, paymentsStore, reg)
	svc.Register(e)
	e.GET("/healthz", func(c echo.Context) error {
		if err := sqlDB.PingContext(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.String(http.StatusOK, "ok")
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		zap.L().Info("Starting API server...", zap.String("address", cfg.Addr))
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			zap.L().Error("Failed run API server", zap.Error(err))
		}
	}()

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: httputils.RunDebugMux(sqlDB),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		zap.L().Info("Starting metrics server...", zap.String("address", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Error("Failed run metrics server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed shutdown API server", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed shutdown metrics server", zap.Error(err))
	}
	wg.Wait()
}

// defaultLogger configures the global zap logger.
func defaultLogger(levelSet string, dev bool) {
	level := zapcore.InfoLevel
	if err := level.Set(levelSet); err != nil {
		panic(err)
	}
	config := zap.NewProductionConfig()
	if dev {
		config = zap.NewDevelopmentConfig()
	}
	config.Level.SetLevel(level)
	l, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l.Named("stdlog"))
}

func setupPostgres(conn string, maxLifetime time.Duration, maxOpen, maxIdle int) *sql.DB {
	sqlDB, err := sql.Open("postgres", conn)
	if err != nil {
		zap.L().Panic("Failed to connect to PostgreSQL.", zap.Error(err))
	}
	sqlDB.SetConnMaxLifetime(maxLifetime)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if err = sqlDB.Ping(); err != nil {
		zap.L().Panic("Failed to connect ping PostgreSQL.", zap.Error(err))
	}
	zap.L().Info("Postgres - Connected!")

	return sqlDB
}
