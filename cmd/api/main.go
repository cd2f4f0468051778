package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/config"
	"github.com/noah-isme/olympiad-progress-api/internal/database"
	"github.com/noah-isme/olympiad-progress-api/internal/handler"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
	"github.com/noah-isme/olympiad-progress-api/internal/router"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/pkg/ai"
	cloud "github.com/noah-isme/olympiad-progress-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled: summary cache and task view tracking are off")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudinaryService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudinaryService
	}

	var generator ai.QuestionGenerator
	if cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create question generator: %v", err)
		}
		generator = openAI
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	table, err := rules.Load(cfg.RulesFile, validate)
	if err != nil {
		log.Fatalf("failed to load rule table: %v", err)
	}

	store := repository.NewStore(db)
	activityService := service.NewActivityService(store.Activity, logger)
	engine := service.NewEngine(service.EngineConfig{
		Store:    store,
		Rules:    table,
		Location: cfg.Timezone,
		Cache:    redisClient,
		CacheTTL: cfg.ProgressCacheTTL,
		Activity: activityService,
		Events:   service.NewProgressEventPublisher(natsConn, cfg.NATSSubject, logger),
		Logger:   logger,
	})

	progressService := service.NewProgressService(engine, logger)
	submissionService := service.NewSubmissionService(engine, service.NewTaskViewTracker(redisClient, cfg.TaskViewTTL, logger), uploader, cfg.AttachmentMaxMB, validate, logger)
	badgeService := service.NewBadgeService(engine, logger)
	rewardService := service.NewRewardService(engine, validate, logger)
	questionService := service.NewQuestionService(generator, validate, logger)
	seedService := service.NewSeedService(store, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.AttachmentMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		AllowOrigins:  cfg.AllowOrigins,
		AccessLogging: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		ProgressHandler:   handler.NewProgressHandler(progressService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		BadgeHandler:      handler.NewBadgeHandler(badgeService, logger),
		RewardHandler:     handler.NewRewardHandler(rewardService, activityService, logger),
		CatalogHandler:    handler.NewCatalogHandler(engine.Rules()),
		QuestionHandler:   handler.NewQuestionHandler(questionService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		WriteGuards:       []fiber.Handler{middleware.RateLimit("progress-writes", cfg.RateLimitMax, cfg.RateLimitWindow)},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("driver", cfg.DatabaseDriver).Msg("olympiad progress api started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
