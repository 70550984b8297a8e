package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/collector"
	"github.com/bolnews/newslake/lake"
	memstore "github.com/bolnews/newslake/lake/store/memory"
	"github.com/bolnews/newslake/lake/store/pg"
	"github.com/bolnews/newslake/search"
	"github.com/bolnews/newslake/service"
	collectorsvc "github.com/bolnews/newslake/service/collector"
	"github.com/bolnews/newslake/service/dashboard"
	"github.com/bolnews/newslake/weather"
)

const appName = "newslake"

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that will be passed to all services.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	// Credentials live in a .env file when present; a missing file is fine
	// since the environment may be populated directly.
	_ = godotenv.Load()

	if err := run(logger); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func run(logger *logrus.Entry) error {
	storeURI := flag.String(
		"store-uri", "in-memory://",
		"URI for connecting to the lake data store."+
			" [supported URI's: in-memory://, postgresql:// (credentials from DB_* env vars)]",
	)
	landingDir := flag.String(
		"landing-dir", "landing", "Directory landing files are written into",
	)
	updateInterval := flag.Duration(
		"collector-update-interval", time.Hour, "Time between subsequent collect passes",
	)
	listenAddr := flag.String(
		"dashboard-listen-addr", ":8080",
		"Address to listen on for incoming dashboard API requests",
	)
	weatherCity := flag.String(
		"weather-city", "Santa Cruz de la Sierra,BO",
		"City queried by the dashboard weather endpoint",
	)
	once := flag.Bool(
		"once", false, "Run a single collect pass and exit instead of starting the services",
	)
	flag.Parse()

	store, err := getStore(*storeURI, logger)
	if err != nil {
		return err
	}

	newsCollector, err := collector.New(collector.Config{
		Store:      store,
		LandingDir: *landingDir,
		Name:       appName,
		Logger:     logger.WithField("component", "collector"),
	})
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals and
	// trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if *once {
		collected, err := newsCollector.Run(ctx)
		logger.WithField("collected_article_count", collected).Info("collect pass finished")

		return err
	}

	svcGroup, err := configureServices(
		newsCollector, store, *updateInterval, *listenAddr, *weatherCity, logger,
	)
	if err != nil {
		return err
	}

	return svcGroup.Execute(ctx)
}

func configureServices(
	newsCollector *collector.Collector, store lake.Store,
	updateInterval time.Duration, listenAddr, weatherCity string,
	logger *logrus.Entry,
) (service.Group, error) {

	var svcGroup service.Group

	collectorService, err := collectorsvc.New(collectorsvc.Config{
		Collector:      newsCollector,
		UpdateInterval: updateInterval,
		Logger:         logger.WithField("service", "collector"),
	})
	if err != nil {
		return nil, err
	}
	svcGroup = append(svcGroup, collectorService)

	searchIndex, err := search.NewIndex()
	if err != nil {
		return nil, err
	}

	dashboardConfig := dashboard.Config{
		Store:       store,
		SearchIndex: searchIndex,
		ListenAddr:  listenAddr,
		Logger:      logger.WithField("service", "dashboard"),
	}
	if apiKey := os.Getenv("OPENWEATHERMAP_API_KEY"); apiKey != "" {
		dashboardConfig.Weather = &weather.Client{APIKey: apiKey, City: weatherCity}
	} else {
		logger.Warn("OPENWEATHERMAP_API_KEY not set, weather endpoint disabled")
	}

	dashboardService, err := dashboard.New(dashboardConfig)
	if err != nil {
		return nil, err
	}
	svcGroup = append(svcGroup, dashboardService)

	return svcGroup, nil
}

func getStore(storeURI string, logger *logrus.Entry) (lake.Store, error) {
	if storeURI == "" {
		return nil, fmt.Errorf("store URI must be specified with --store-uri")
	}

	uri, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory lake store")

		return memstore.NewInMemoryStore(), nil
	case "postgresql":
		logger.Info("using postgres lake store")

		return pg.NewPostgresStore(postgresDSN())
	default:
		return nil, fmt.Errorf("unsupported store URI scheme: %q", uri.Scheme)
	}
}

// postgresDSN assembles the connection string from the DB_* environment
// variables, normally populated from the .env file.
func postgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_DATABASE"),
	)
}
