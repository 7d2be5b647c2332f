package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/summer-camp-school/camp-service/internal/config"
	"github.com/summer-camp-school/camp-service/internal/events"
	"github.com/summer-camp-school/camp-service/internal/metrics"
	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// ServiceManagerConfig holds what the services need beyond the store
type ServiceManagerConfig struct {
	Payment        config.PaymentConfig
	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.Publisher
	logger    *slog.Logger
	config    ServiceManagerConfig

	// Service instances
	userService       UserService
	classService      ClassService
	instructorService InstructorService
	cartService       CartService
	orderService      OrderService
	reportService     ReportService

	// Lifecycle management
	shutdown bool
	mu       sync.RWMutex
}

// NewServiceManager wires every service against one repository handle
func NewServiceManager(
	repo repositories.Repository,
	gateway payment.Gateway,
	publisher events.Publisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
	validator *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	sm := &serviceManager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}

	sm.userService = NewUserService(repo, logger, validator)
	sm.classService = NewClassService(repo, logger, validator)
	sm.instructorService = NewInstructorService(repo)
	sm.cartService = NewCartService(repo, logger, validator)
	sm.orderService = NewOrderService(OrderDeps{
		Repo:      repo,
		Gateway:   gateway,
		Publisher: publisher,
		Metrics:   recorder,
		Logger:    logger,
		Validator: validator,
		Payment:   config.Payment,
	})
	sm.reportService = NewReportService(repo, logger)

	logger.Info("Service manager initialized")
	return sm
}

// Service getters
func (sm *serviceManager) User() UserService             { return sm.userService }
func (sm *serviceManager) Class() ClassService           { return sm.classService }
func (sm *serviceManager) Instructor() InstructorService { return sm.instructorService }
func (sm *serviceManager) Cart() CartService             { return sm.cartService }
func (sm *serviceManager) Order() OrderService           { return sm.orderService }
func (sm *serviceManager) Report() ReportService         { return sm.reportService }

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher then the store handle
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	var errs []error
	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
			errs = append(errs, err)
		}
	}
	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
		errs = append(errs, err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}
	return nil
}
