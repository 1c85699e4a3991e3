package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/theleywin/Backend-Kindred/src/controllers"
	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/middleware"
	"github.com/theleywin/Backend-Kindred/src/routes"
	"github.com/theleywin/Backend-Kindred/src/services"
	"github.com/theleywin/Backend-Kindred/src/store"
)

const redisLockTTL = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-admin-key" {
		if err := lib.PrintAdminKeyHash(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "hash-admin-key:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := lib.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := lib.NewLogger(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connections, notifications, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", "driver", cfg.DBDriver, "error", err)
	}

	templates, err := cfg.Templates()
	if err != nil {
		log.Fatal("Failed to load milestone templates", "path", cfg.MilestoneTemplatesPath, "error", err)
	}

	reads, err := store.NewCachedReader(connections, cfg.CacheSize, log)
	if err != nil {
		log.Fatal("Failed to create connection cache", "error", err)
	}

	var locker services.Locker = services.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to reach redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb, redisLockTTL)
		log.Info("Using redis connection locks", "addr", cfg.RedisAddr)
	}

	svc, err := services.NewConnectionService(services.Deps{
		Store:         connections,
		Reads:         reads,
		Notifications: notifications,
		Locker:        locker,
		Templates:     templates,
		Policy:        cfg.AdvancePolicy,
		Log:           log,
	})
	if err != nil {
		log.Fatal("Failed to create connection service", "error", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.AdminKeyHeader,
	}))

	registerRoutes(app, cfg, log, svc, notifications)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Shutdown failed", "error", err)
		}
	}()

	log.Info("Server is running", "port", cfg.Port, "driver", cfg.DBDriver, "policy", cfg.AdvancePolicy.Name)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}

// openStores builds the connection and notification stores for the configured driver
func openStores(ctx context.Context, cfg *lib.Config, log *lib.Logger) (store.ConnectionStore, store.NotificationStore, error) {
	if cfg.DBDriver == "mongo" {
		db, err := lib.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		connections := store.NewMongoConnectionStore(db, log)
		if err := connections.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return connections, store.NewMongoNotificationStore(db), nil
	}

	db, err := lib.ConnectDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := lib.AutoMigrate(db, log); err != nil {
		return nil, nil, err
	}
	return store.NewGormConnectionStore(db, log), store.NewGormNotificationStore(db), nil
}

func registerRoutes(app *fiber.App, cfg *lib.Config, log *lib.Logger, svc *services.ConnectionService, notifications store.NotificationStore) {
	routes.HealthRoutes(app)
	routes.ConnectionRoutes(app, controllers.NewConnectionController(svc, log), cfg.JWTSecret)
	routes.NotificationRoutes(app, controllers.NewNotificationController(notifications, log), cfg.JWTSecret)
	routes.AdminRoutes(app, controllers.NewAdminController(svc, log), cfg.AdminKeyHash)

	if cfg.AdminKeyHash == "" {
		log.Warn("ADMIN_KEY_HASH is not set, admin routes will reject every request")
	}
}
