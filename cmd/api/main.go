package main

import (
	"fmt"
	"io"

	"erario/internal/config"
	"erario/internal/database"
	"erario/internal/events"
	"erario/internal/events/kafka"
	"erario/internal/logger"
	"erario/internal/server"
	"erario/internal/services"
)

// @title           Erario API
// @version         1.0
// @description     Erario is the municipal budget execution ledger: fiscal-year budgets, line items and the commitment, accrual and payment cycle.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared key of the payment subsystem.

func main() {
	appConfig, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger.Init(appConfig.Env)
	defer logger.Sync()

	if err := run(appConfig); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

type eventPublisher interface {
	services.EventPublisher
	io.Closer
}

func run(appConfig *config.Config) error {
	log := logger.Get()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if appConfig.AutoMigrate {
		if err := dbManager.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	var publisher eventPublisher
	if len(appConfig.KafkaBrokers) > 0 {
		publisher = kafka.NewPublisher(appConfig.KafkaBrokers, appConfig.KafkaTopic)
		log.Infof("Publishing ledger transitions to Kafka topic %s", appConfig.KafkaTopic)
	} else {
		publisher = events.NewLogPublisher(logger.Named("events"))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("event publisher close error: %v", err)
		}
	}()

	svc := server.NewServices(dbManager.DB(), publisher, server.LedgerOptionsFrom(appConfig))
	router := server.NewRouter(appConfig, svc)

	log.Infof("Starting Erario budget ledger on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
