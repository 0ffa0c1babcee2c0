// Command notifier runs the Temporal worker that records booking
// notifications started by the API's temporal sink.
package main

import (
	"context"
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	intconfig "busticket/internal/config"
	"busticket/internal/notify"
	"busticket/internal/repositories"
)

func main() {
	env, err := intconfig.Load("notifier", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.TemporalHost == "" {
		log.Fatal("TEMPORAL_HOST is required")
	}

	sqlDB, err := intconfig.ConnectDB(context.Background(), env)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	c, err := client.Dial(client.Options{
		HostPort:  env.TemporalHost,
		Namespace: env.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("temporal: %v", err)
	}
	defer c.Close()

	w := worker.New(c, env.TemporalTaskQueue, worker.Options{})
	notify.Register(w, &notify.Activities{
		Store: repositories.NotificationRepository{DB: sqlDB, Dialect: env.Dialect},
	})

	log.Printf("notifier polling task queue %q", env.TemporalTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
