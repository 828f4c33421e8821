package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clientdesk/clientdesk/modules"
	"github.com/clientdesk/clientdesk/modules/crm/infrastructure/persistence"
	"github.com/clientdesk/clientdesk/pkg/application"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
	"github.com/clientdesk/clientdesk/pkg/metrics"
	"github.com/clientdesk/clientdesk/pkg/middleware"
	"github.com/clientdesk/clientdesk/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(conf.Mongo.URI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping mongo: %v", err)
	}
	db := mongoClient.Database(conf.Mongo.Database)

	if err := persistence.NewClientRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	app := application.New(&application.ApplicationOptions{
		DB:       db,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	app.RegisterMiddleware(
		middleware.WithLogger(logger),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	srv := server.NewHTTPServer(app, server.Options{
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	})
	fmt.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := srv.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
