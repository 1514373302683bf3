package main

import (
	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/events"
	"github.com/tripora/backend/internal/handlers"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/services"
	"github.com/tripora/backend/internal/utils"
	"github.com/tripora/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	dispatcher     *events.Dispatcher
	janitor        *services.CredentialJanitor
	taskQueue      services.TaskQueue
	worker         *services.Worker
	authHandler    *handlers.AuthHandler
	bookingHandler *handlers.BookingHandler
}

// bootstrap initializes all application dependencies: database, event
// registry, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if cfg.UsingDevSigningKey() {
		logger.Warn().Msg("no signing key configured, using fixed development key")
	}
	utils.SetJWTSecret(cfg.EffectiveSigningKey())
	utils.SetJWTIssuer(cfg.Auth.Issuer)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	// Event registry is built once at startup; handlers resolve statically
	// by event name.
	dispatcher := events.NewDispatcher()
	taskQueue := services.NewTaskQueue(cfg)
	notifications := services.NewNotificationService(taskQueue)
	notifications.RegisterHandlers(dispatcher)

	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifications.Deliver)
	}
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifications.Deliver)
			worker.Start()
		}
	}

	credentialService := services.NewCredentialService(db, dispatcher, &cfg.Auth)
	tokenIssuer := services.NewTokenIssuer(services.NewDBRoleLookup(db), &cfg.Auth)
	authService := services.NewAuthService(db, tokenIssuer, credentialService)
	bookingService := services.NewBookingService(db, dispatcher)

	janitor := services.NewCredentialJanitor(db, &cfg.Janitor)
	janitor.Start()

	authHandler := handlers.NewAuthHandler(authService)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		dispatcher:     dispatcher,
		janitor:        janitor,
		taskQueue:      taskQueue,
		worker:         worker,
		authHandler:    authHandler,
		bookingHandler: handlers.NewBookingHandler(bookingService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.janitor.Stop()
	logger.Info().Msg("Janitor stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
