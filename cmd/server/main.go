package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/dating-platform/internal/chat"
	"github.com/suPer8Hu/dating-platform/internal/config"
	"github.com/suPer8Hu/dating-platform/internal/db"
	"github.com/suPer8Hu/dating-platform/internal/httpapi"
	"github.com/suPer8Hu/dating-platform/internal/logger"
	"github.com/suPer8Hu/dating-platform/internal/match"
	"github.com/suPer8Hu/dating-platform/internal/notify"
	"github.com/suPer8Hu/dating-platform/internal/observability"
	"github.com/suPer8Hu/dating-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/dating-platform/internal/users"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Init(ctx, log, observability.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "dating-api",
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Warn("otel init failed (continuing)", "error", err)
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", "error", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("db migrate", "error", err)
	}

	// notifications are best effort; the API keeps serving without a broker
	var notifier match.Notifier
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Warn("rabbit publisher unavailable, match notifications disabled", "error", err)
	} else {
		defer pub.Close()
		notifier = notify.NewDispatcher(pub)
	}

	engine := match.NewEngine(gdb, users.NewRepo(gdb), chat.NewResolver(gdb), notifier, log, match.Options{
		MaxAttempts:   cfg.MatchTxAttempts,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(gdb, cfg, engine, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		engine.Wait()
		if otelShutdown != nil {
			if serr := otelShutdown(shutdownCtx); serr != nil {
				log.Warn("otel shutdown", "error", serr)
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return
	}
	log.Info("server stopped")
}
