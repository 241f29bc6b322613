package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bountyhive/BountyHive/app/repository"
	"github.com/bountyhive/BountyHive/internal/pkg/cache"
	"github.com/bountyhive/BountyHive/internal/pkg/database"
	"github.com/bountyhive/BountyHive/internal/pkg/env"
	"github.com/bountyhive/BountyHive/internal/pkg/escrow"
	"github.com/bountyhive/BountyHive/internal/pkg/fees"
	"github.com/bountyhive/BountyHive/internal/pkg/gateway"
	"github.com/bountyhive/BountyHive/internal/pkg/jobqueue"
	"github.com/bountyhive/BountyHive/internal/pkg/payout"
	"github.com/bountyhive/BountyHive/internal/pkg/quota"
	"github.com/bountyhive/BountyHive/internal/pkg/router"
)

func main() {
	app := NewApplication()

	manager := jobqueue.GetManager()
	manager.Start()
	defer manager.Stop()

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)

	// Wire the escrow engine into the job queue so settlement and ledger
	// rebuild jobs can call back into it.
	manager := jobqueue.GetManager()
	gw := gateway.NewClientFromEnv()
	engine := escrow.NewServiceFromDB(
		db,
		gw,
		quota.NewServiceFromDB(db),
		payout.NewServiceFromDB(db, gw),
		fees.ConfigFromEnv(),
		jobqueue.NewQueueOutbox(manager.GetQueue()),
	)
	manager.SetEngine(engine)

	app := fiber.New(fiber.Config{
		AppName: "BountyHive",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
