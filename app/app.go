package app

import (
	"context"
	"fmt"
	"time"

	"dz-fellah/config"
	"dz-fellah/controllers"
	"dz-fellah/events"
	"dz-fellah/libs"
	"dz-fellah/middleware"
	"dz-fellah/repositories"
	"dz-fellah/routes"
	"dz-fellah/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired services and the resources they share.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     repositories.Store
	Redis     *redis.Client
	Publisher events.Publisher

	Carts     *services.CartService
	Orders    *services.OrderService
	Producers *services.ProducerOrderService
	AntiGaspi *services.AntiGaspiService

	health func() error
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	switch cfg.DBDriver {
	case "memory":
		mem := repositories.NewMemoryStore()
		repositories.SeedDemo(mem)
		a.Store = mem
		logger.Warn("using in-memory store with demo data")
	default:
		pool, err := config.ConnectDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.Store = repositories.NewPgStore(pool)
		a.health = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}
	}

	a.Redis = libs.NewRedis(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword, logger)

	var sequence services.SequenceSource = services.DBSequence{}
	if cfg.OrderSequence == "redis" {
		if a.Redis == nil {
			a.Close()
			return nil, fmt.Errorf("ORDER_SEQUENCE=redis requires a reachable redis")
		}
		sequence = services.RedisSequence{Client: a.Redis}
	}

	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		a.Publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic, cfg.KafkaPublishTimeout, logger)
	} else {
		a.Publisher = events.NopPublisher{}
	}

	var mailer libs.Mailer = libs.NopMailer{}
	if cfg.MailEnabled() {
		m, err := libs.NewSMTPMailer(libs.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
		if err != nil {
			logger.Warn("mail disabled", zap.Error(err))
		} else {
			mailer = m
		}
	}

	notifier := services.NewNotifier(a.Publisher, mailer, a.Store.Repos().Products, logger)

	a.Carts = services.NewCartService(a.Store, logger)
	a.Orders = services.NewOrderService(a.Store, notifier, logger,
		services.WithSequence(sequence),
		services.WithOrderPrefix(cfg.OrderPrefix))
	a.Producers = services.NewProducerOrderService(a.Store, notifier, logger, cfg.AdjustmentTolerance)
	a.AntiGaspi = services.NewAntiGaspiService(a.Store, a.Redis, notifier, logger, services.AntiGaspiConfig{
		Categories: cfg.AntiGaspiCategories,
		MinAgeDays: cfg.AntiGaspiMinAgeDays,
		MinStock:   cfg.AntiGaspiMinStock,
	})
	return a, nil
}

// Router builds the gin engine with the full middleware chain.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.Logger))
	router.Use(middleware.CORSMiddleware(a.Config.OriginURL))

	routes.SetupRoutes(router, routes.Controllers{
		Cart:          controllers.NewCartController(a.Carts),
		Order:         controllers.NewOrderController(a.Orders),
		ProducerOrder: controllers.NewProducerOrderController(a.Producers),
		Cron:          controllers.NewCronController(a.AntiGaspi),
	}, routes.Options{
		JWTSecret:      a.Config.JWTSecret,
		CronSecretHash: a.Config.CronSecretHash,
		Health:         a.health,
	})
	return router
}

func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("event publisher close failed", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
