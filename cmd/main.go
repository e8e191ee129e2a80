package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"

	"github.com/databridge/sql-gcs-etl/internal/api"
	"github.com/databridge/sql-gcs-etl/internal/config"
	"github.com/databridge/sql-gcs-etl/internal/core/export"
	"github.com/databridge/sql-gcs-etl/internal/core/schema"
	"github.com/databridge/sql-gcs-etl/internal/core/sink"
	"github.com/databridge/sql-gcs-etl/internal/core/source"
	"github.com/databridge/sql-gcs-etl/internal/server"
)

//nolint:gochecknoglobals,revive // build variables
var (
	commit string = "unspecified"
	app    string = "unspecified"
)

type cfg struct {
	LogFormat    string     `default:"json" split_words:"true"`
	LogLevel     slog.Level `default:"info" split_words:"true"`
	LogAddSource bool       `default:"true" split_words:"true"`

	ServerAddr            string        `default:":8080" split_words:"true"`
	ServerWriteTimeout    time.Duration `default:"15s" split_words:"true"`
	ServerReadTimeout     time.Duration `default:"15s" split_words:"true"`
	ServerIdleTimeout     time.Duration `default:"5m" split_words:"true"`
	ServerShutdownTimeout time.Duration `default:"30s" split_words:"true"`

	ConnectionsFile    string `default:"connections.json" split_words:"true"`
	GCSBucket          string `required:"true" split_words:"true"`
	GCSCredentialsFile string `split_words:"true"`
}

func main() {
	var c cfg
	err := envconfig.Process("sqlgcs", &c)
	if err != nil {
		slog.Error("unable to parse config", slog.Any("error", err))
		os.Exit(1)
	}

	//nolint: exhaustruct // optional config
	logOpts := &slog.HandlerOptions{
		Level:     c.LogLevel,
		AddSource: c.LogAddSource,
	}

	var logHandler slog.Handler
	switch c.LogFormat {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stdout, logOpts)
	default:
		//nolint:exhaustruct // optional config
		logHandler = tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
	}

	log := slog.New(logHandler)

	log = log.With(
		slog.String("app", app),
		slog.String("commit_hash", commit),
		slog.String("goversion", runtime.Version()),
	)

	if err := mainErr(&c, log); err != nil {
		log.Error("Service stopped with error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("Service terminated gracefully")
}

func mainErr(c *cfg, log *slog.Logger) error {
	loader, err := config.NewLoader[map[string]source.ConnectionConfig](c.ConnectionsFile)
	if err != nil {
		return fmt.Errorf("create connections loader: %w", err)
	}

	connections, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	hook := source.NewHook(connections)
	defer hook.Close()

	uploader, err := sink.NewGCSUploader(context.Background(), sink.GCSConfig{
		Bucket:          c.GCSBucket,
		CredentialsFile: c.GCSCredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("create gcs uploader: %w", err)
	}
	defer uploader.Close()

	pipeline := export.NewPipeline(hook, uploader, schema.SerializableValue, log)

	apiServer := server.NewHTTPServer(
		c.ServerAddr,
		api.NewRouter(log, pipeline),
		c.ServerReadTimeout,
		c.ServerWriteTimeout,
		c.ServerIdleTimeout,
		log,
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-shutdown:
		log.Info("Received termination signal - service will shutdown")
		if err := apiServer.Shutdown(c.ServerShutdownTimeout); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	}
}
