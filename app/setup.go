package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/api"
	"github.com/sahilchouksey/admission-api/config"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/router"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if getEnv.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	// The one database handle for this process, injected everywhere below
	store, err := database.Open(getEnv)
	if err != nil {
		print("Check whether the database is running or not\n")
		print("For local development set DB_DRIVER=sqlite\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Bootstrap the first admin from ADMIN_EMAIL/ADMIN_PASSWORD when none exists
	if err := database.NewSeeder(store.GetDB(), getEnv.ADMIN_EMAIL, getEnv.ADMIN_PASSWORD).SeedAdminUser(); err != nil {
		log.Warnf("Failed to seed admin user: %v", err)
	}

	deps, closeDeps := router.NewDependencies(getEnv)

	// Cron jobs reconcile counters with the same locker the API uses
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		db := store.GetDB()
		allocation := services.NewAllocationService(db, services.NewRankingService(db), deps.Locker)
		cronManager = cron.NewCronManager(db, allocation, getEnv.RECONCILE_SCHEDULE)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warnf("Failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		closeDeps()
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	router.SetupRoutes(server.GetEngine(), store, getEnv, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down API Server")
		if err := server.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	return server.Run()
}
