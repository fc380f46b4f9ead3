package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"wya-server/config"
	"wya-server/handlers"
	"wya-server/middleware"
	"wya-server/services"
	"wya-server/utils/logger"
)

type stores interface {
	services.UserStore
	services.NotificationStore
	services.ReportStore
}

func main() {
	mintCronToken := flag.Duration("mint-cron-token", 0, "print a scheduler token valid for the given duration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	middleware.SetErrorLogger(log)

	var cronAuth *services.CronAuth
	if cfg.CronSecret != "" {
		cronAuth = services.NewCronAuth(cfg.CronSecret)
	}
	if *mintCronToken > 0 {
		if cronAuth == nil {
			log.Fatal("CRON_SECRET environment variable is not set")
		}
		token, err := cronAuth.IssueToken("scheduler", *mintCronToken)
		if err != nil {
			log.Fatal("failed to mint cron token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()

	// Store
	var store stores
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store = services.NewMemoryStore()
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("MongoDB connection failed", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := client.Ping(ctx, nil); err != nil {
			log.Fatal("failed to ping MongoDB", zap.Error(err))
		}
		log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

		mongoStore := services.NewMongoStore(client, client.Database(cfg.MongoDatabase), log)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal("failed to create indexes", zap.Error(err))
		}
		store = mongoStore
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.RedisAddr))
	}

	var cities services.CityResolver
	if cfg.GoogleMapsKey != "" {
		resolver, err := services.NewGoogleCityResolver(cfg.GoogleMapsKey, redisClient, log)
		if err != nil {
			log.Fatal("failed to create city resolver", zap.Error(err))
		}
		cities = resolver
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set; city text disabled")
	}

	// Initialize services and handlers
	identity := services.NewClerkIdentityProvider(cfg.ClerkSecretKey)
	userService := services.NewUserService(store, redisClient, identity, cfg.UserCacheTTL, log)
	locationService := services.NewLocationService(store, userService, redisClient, log)
	visibilityService := services.NewVisibilityService(userService, cities, log)
	reportService := services.NewReportService(store, log)
	notificationService := services.NewNotificationService(store, store, services.NewExpoPusher(), redisClient, cfg.InactivityLease, log)

	if n, err := locationService.IndexAll(ctx); err != nil {
		log.Warn("failed to rebuild geo index", zap.Error(err))
	} else {
		log.Info("geo index ready", zap.Int("users", n))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Users:          handlers.NewUserHandler(userService, locationService),
		Auth:           handlers.NewAuthHandler(userService),
		Map:            handlers.NewMapHandler(visibilityService, locationService),
		Reports:        handlers.NewReportHandler(reportService),
		Cron:           handlers.NewCronHandler(notificationService, log),
		Policy:         handlers.NewPolicyHandler(),
		CronAuth:       cronAuth,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})
	if cronAuth == nil {
		log.Warn("CRON_SECRET not set; cron routes are unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
