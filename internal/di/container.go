// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"sync"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	"ideascentral/internal/services/mailer"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"
)

// Service names used as container keys
const (
	ServiceAuth       = "auth"
	ServiceRecords    = "records"
	ServiceEvaluation = "evaluation"
	ServiceClassifier = "classifier"
	ServiceMailer     = "mailer"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetAuthService() (services.AuthServiceInterface, error)
	GetRecordService() (services.RecordServiceInterface, error)
	GetEvaluationService() (services.EvaluationServiceInterface, error)
	GetClassifier() (services.Classifier, error)
	GetMailer() (mailer.Mailer, error)
	GetStore() store.Store
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	store         store.Store
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

var _ ServiceContainerInterface = (*ServiceContainer)(nil)

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize opens the configured store and builds every service on top of it
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	st, err := store.New(ctx, sc.cfg, sc.logger)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize store")
	}
	sc.store = st
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return st.Close()
	})

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapError(err, "failed to initialize services")
	}

	sc.logger.Info(ctx, "Services initialized", map[string]interface{}{
		"store":    st.Backend(),
		"services": len(sc.services),
	})
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetAuthService returns the identity provider
func (sc *ServiceContainer) GetAuthService() (services.AuthServiceInterface, error) {
	return GetServiceAs[services.AuthServiceInterface](sc, ServiceAuth)
}

// GetRecordService returns the record store facade
func (sc *ServiceContainer) GetRecordService() (services.RecordServiceInterface, error) {
	return GetServiceAs[services.RecordServiceInterface](sc, ServiceRecords)
}

// GetEvaluationService returns the evaluation engine
func (sc *ServiceContainer) GetEvaluationService() (services.EvaluationServiceInterface, error) {
	return GetServiceAs[services.EvaluationServiceInterface](sc, ServiceEvaluation)
}

// GetClassifier returns the problem text classifier
func (sc *ServiceContainer) GetClassifier() (services.Classifier, error) {
	return GetServiceAs[services.Classifier](sc, ServiceClassifier)
}

// GetMailer returns the email sender
func (sc *ServiceContainer) GetMailer() (mailer.Mailer, error) {
	return GetServiceAs[mailer.Mailer](sc, ServiceMailer)
}

// GetStore returns the persistence backend
func (sc *ServiceContainer) GetStore() store.Store {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.store
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs shutdown funcs in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	metrics, err := observability.NewDomainMetrics(nil)
	if err != nil {
		// counters are optional, the workflow runs without them
		sc.logger.Warn(ctx, "Domain metrics unavailable", map[string]interface{}{"error": err.Error()})
		metrics = nil
	}

	emailService := services.CreateEmailService(sc.cfg, sc.logger)
	sc.services[ServiceMailer] = emailService

	hooks := []services.DecisionHook{services.NewDecisionNotifier(emailService, sc.store, sc.cfg, sc.logger)}
	if urls := sc.cfg.Notifications.ChannelURLs; len(urls) > 0 {
		timeout := sc.cfg.Notifications.ChannelTimeout
		if timeout <= 0 {
			timeout = config.DefaultChannelTimeout
		}
		channel, err := services.NewChannelNotifier(urls, timeout, sc.logger)
		if err != nil {
			return err
		}
		hooks = append(hooks, channel)
	}

	records := services.NewRecordService(sc.store, sc.logger, metrics, hooks...)
	sc.services[ServiceRecords] = records
	sc.services[ServiceEvaluation] = services.NewEvaluationService(records, sc.cfg.Evaluation, sc.logger)
	sc.services[ServiceAuth] = services.NewAuthService(sc.store, sc.cfg, sc.logger)
	sc.services[ServiceClassifier] = services.NewKeywordClassifier()

	return nil
}
