package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"

	intconfig "busticket/internal/config"
	"busticket/internal/db/migrations"
	router "busticket/internal/http"
	"busticket/internal/http/handlers"
	"busticket/internal/notify"
	"busticket/internal/repositories"
	"busticket/internal/services"
)

func main() {
	env, err := intconfig.Load("busticket", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx := context.Background()
	sqlDB, err := intconfig.ConnectDB(ctx, env)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	if env.AutoMigrate {
		if err := migrations.Apply(ctx, sqlDB, env.Dialect); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	store := repositories.NewLedgerStore(sqlDB, env.Dialect)
	feed := repositories.NotificationRepository{DB: sqlDB, Dialect: env.Dialect}

	sink, closeSink, err := newSink(env, feed)
	if err != nil {
		log.Fatalf("notify: %v", err)
	}
	defer closeSink()

	ledger := services.NewLedgerService(store, sink,
		services.NewReferenceGenerator(env.ReferencePrefix, env.ReferenceLength),
		services.LedgerOptions{
			StoreTimeout:         env.StoreTimeout,
			EnforceOperatingDays: env.EnforceOperatingDays,
		})

	h := &handlers.Handler{
		Ledger:        ledger,
		Receipts:      services.ReceiptService{Source: store, Currency: env.Currency},
		Notifications: feed,
		Ping:          func(ctx context.Context) error { return intconfig.Ready(ctx, sqlDB, env.Dialect) },
	}
	r := router.NewRouter(env, h)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://localhost%s (driver=%s)", env.AppAddr, env.Dialect)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
		return
	}

	log.Println("Server stopped cleanly.")
}

// newSink builds the notification fan-out named by NOTIFY_SINKS.
func newSink(env intconfig.Env, feed notify.Recorder) (notify.Sink, func(), error) {
	var (
		sinks  notify.MultiSink
		closer = func() {}
	)
	for _, name := range env.NotifySinks {
		switch name {
		case intconfig.SinkLog:
			sinks = append(sinks, notify.LogSink{})
		case intconfig.SinkStore:
			sinks = append(sinks, notify.StoreSink{Store: feed})
		case intconfig.SinkTemporal:
			c, err := client.Dial(client.Options{
				HostPort:  env.TemporalHost,
				Namespace: env.TemporalNamespace,
			})
			if err != nil {
				return nil, closer, err
			}
			closer = c.Close
			sinks = append(sinks, notify.NewTemporalSink(c, env.TemporalTaskQueue))
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, notify.LogSink{})
	}
	return sinks, closer, nil
}
