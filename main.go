package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gorelia/internal/api"
	"gorelia/internal/config"
	"gorelia/internal/container"
	"gorelia/internal/errors"
)

// initDatabase connects to PostgreSQL when DATABASE_URL is set
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if !appConfig.Database.Enabled() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())
	logger := appContainer.Logger.With("Main")

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	opts := []api.Option{
		api.WithLogger(appContainer.Logger),
		api.WithMetrics(appContainer.Registry, appContainer.HTTPMetrics),
	}
	if db != nil {
		if err := appContainer.InitWithDatabase(context.Background(), db); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		opts = append(opts, api.WithRecordRoutes())
	} else {
		logger.Info("DATABASE_URL not set; failure type routes disabled")
	}

	server := api.NewServer(appContainer.Service(), opts...)

	logger.Info("bootstrap: %d samples, %d workers, timeout %s",
		appConfig.Bootstrap.Samples, appConfig.Bootstrap.Workers, appConfig.Bootstrap.Timeout)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
