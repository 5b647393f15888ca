package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/computersciencehouse/quickpoll/config"
	"github.com/computersciencehouse/quickpoll/controllers"
	"github.com/computersciencehouse/quickpoll/database"
	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/computersciencehouse/quickpoll/sse"
	"github.com/computersciencehouse/quickpoll/transport"
	"github.com/computersciencehouse/quickpoll/voting"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type store interface {
	voting.Store
	controllers.Pinger
}

func main() {
	config.LoadDotEnv()

	conf, err := config.Read(config.New())
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "main", "method": "main"}).Fatal("invalid configuration")
	}
	if err := logging.SetLevel(conf.Log.Level); err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "main", "method": "main"}).Warn("unknown log level, keeping info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeStore, err := openStore(ctx, conf)
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "main", "method": "main"}).Fatal("could not open store")
	}
	defer closeStore()

	service := voting.NewService(db, db, db)
	broker := sse.NewBroker()

	r := transport.NewRouter(conf.Server.Mode, conf.CORS.Origins)
	controllers.NewPollController(service).RegisterRoutes(r)
	controllers.NewChoiceController(service, broker).RegisterRoutes(r)
	controllers.NewHealthController(db).RegisterRoutes(r)
	r.GET("/stream/:topic", broker.ServeHTTP)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Server.Port),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Logger.WithFields(logrus.Fields{"module": "main", "method": "main", "addr": server.Addr}).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		broker.Listen(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Logger.WithFields(logrus.Fields{"module": "main", "method": "main"}).Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "main", "method": "main"}).Error("server stopped with error")
	}
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, conf *config.Config) (store, func(), error) {
	if conf.Store.Driver == config.DriverMemory {
		logging.Logger.WithFields(logrus.Fields{"module": "main", "method": "openStore"}).Warn("using in-memory store, data is lost on exit")
		return database.NewMemoryStore(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, conf.Database.Timeout)
	defer cancel()

	client, err := database.Connect(connectCtx, conf.Database.URI)
	if err != nil {
		return nil, nil, err
	}

	mongoStore := database.NewMongoStore(client, conf.Database.Name, conf.Database.Timeout)
	if err := mongoStore.EnsureIndexes(connectCtx); err != nil {
		database.Disconnect(context.Background(), client)
		return nil, nil, err
	}

	return mongoStore, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
		defer cancel()
		database.Disconnect(disconnectCtx, client)
	}, nil
}
