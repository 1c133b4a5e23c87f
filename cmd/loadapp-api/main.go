// README: Entry point; loads config, wires stores and services, starts the HTTP server and the offer expiry ticker.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loadapp/internal/ai"
	"loadapp/internal/config"
	"loadapp/internal/events"
	httptransport "loadapp/internal/http"
	"loadapp/internal/infra"
	"loadapp/internal/maps"
	"loadapp/internal/modules/aiusage"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

type repositories struct {
	routes   route.Repository
	settings costsettings.Repository
	offers   offer.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos := openRepositories(ctx, cfg, logger)
	defer closeRepos()

	defaults, err := costsettings.LoadDefaults(cfg.Rates.DefaultsPath)
	if err != nil {
		logger.Fatal("load default rates", zap.String("path", cfg.Rates.DefaultsPath), zap.Error(err))
	}
	settingsSvc := costsettings.NewService(repos.settings, defaults, logger)
	if _, err := settingsSvc.EnsureDefaults(ctx); err != nil {
		logger.Fatal("seed default cost settings", zap.Error(err))
	}

	routeSvc := route.NewService(repos.routes, distanceProvider(cfg, logger), route.EmptyDriving{
		DistanceKm:    decimal.NewFromFloat(cfg.EmptyDriving.DistanceKm),
		DurationHours: decimal.NewFromFloat(cfg.EmptyDriving.DurationHours),
	}, logger)

	offerSvc := offer.NewService(repos.offers, routeSvc, settingsSvc, logger)

	funFacts, closeFunFacts := funFactProvider(ctx, cfg, logger)
	defer closeFunFacts()
	var budget offer.Budget
	if cfg.Redis.Addr != "" {
		rdb := infra.NewRedis(cfg.Redis.Addr)
		defer func() { _ = rdb.Close() }()
		budget = aiusage.NewService(aiusage.NewStore(rdb), cfg.FunFact.DailyBudget)
	}
	offerSvc.WithFunFacts(funFacts, budget, time.Duration(cfg.FunFact.TimeoutSeconds)*time.Second)

	var publisher offer.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		conn, ch, err := infra.NewAMQP(cfg.AMQP.URL)
		if err != nil {
			logger.Fatal("connect amqp", zap.Error(err))
		}
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()
		pub, err := events.NewAMQPPublisher(ch, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Fatal("declare offer exchange", zap.Error(err))
		}
		publisher = pub
	}
	offerSvc.WithPublisher(publisher)

	go offerSvc.RunExpiryTicker(ctx, time.Duration(cfg.Offers.ExpiryIntervalSeconds)*time.Second)

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.RouterDeps{
		Routes:      routeSvc,
		Costs:       offerSvc,
		Offers:      offerSvc,
		Settings:    settingsSvc,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logger,
	})
	logger.Info("starting loadapp api", zap.String("storage", cfg.Storage.Backend))
	if err := server.Run(ctx); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}

func openRepositories(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories, func()) {
	if cfg.Storage.Backend == "memory" {
		logger.Warn("using in-memory storage; data is lost on restart")
		return repositories{
			routes:   route.NewMemoryStore(),
			settings: costsettings.NewMemoryStore(),
			offers:   offer.NewMemoryStore(),
		}, func() {}
	}
	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	return repositories{
		routes:   route.NewStore(db),
		settings: costsettings.NewStore(db),
		offers:   offer.NewStore(db),
	}, db.Close
}

func distanceProvider(cfg config.Config, logger *zap.Logger) route.DistanceProvider {
	if cfg.Maps.APIKey == "" {
		logger.Warn("LOADAPP_MAPS_API_KEY not set; using mock distance provider")
		return maps.MockProvider{}
	}
	svc, err := maps.NewRouteService(cfg.Maps.APIKey, logger)
	if err != nil {
		logger.Fatal("maps client", zap.Error(err))
	}
	return svc
}

// funFactProvider prefers Gemini, then OpenAI. Without a key fun facts stay empty.
func funFactProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (ai.FunFactProvider, func()) {
	switch {
	case cfg.AI.GeminiKey != "":
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Warn("gemini disabled", zap.Error(err))
			return ai.NoopProvider{}, func() {}
		}
		return p, p.Close
	case cfg.AI.OpenAIKey != "":
		p, err := ai.NewOpenAIProvider(cfg.AI.OpenAIKey)
		if err != nil {
			logger.Warn("openai disabled", zap.Error(err))
			return ai.NoopProvider{}, func() {}
		}
		return p, func() {}
	default:
		return ai.NoopProvider{}, func() {}
	}
}
