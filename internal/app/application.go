package app

import (
	"context"
	"fmt"
	"time"

	agentssvc "github.com/squadbid/storefront/internal/app/services/agents"
	authsvc "github.com/squadbid/storefront/internal/app/services/auth"
	cartsvc "github.com/squadbid/storefront/internal/app/services/cart"
	catalogsvc "github.com/squadbid/storefront/internal/app/services/catalog"
	checkoutsvc "github.com/squadbid/storefront/internal/app/services/checkout"
	orderssvc "github.com/squadbid/storefront/internal/app/services/orders"
	"github.com/squadbid/storefront/internal/app/storage"
	"github.com/squadbid/storefront/internal/app/storage/memory"
	"github.com/squadbid/storefront/internal/app/system"
	"github.com/squadbid/storefront/internal/httputil"
	"github.com/squadbid/storefront/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Sessions   storage.SessionStore
	Selections storage.SelectionStore
	Journal    storage.CheckoutJournal
}

// Config carries the backend endpoints and merchant identity the services
// are wired against.
type Config struct {
	APIBaseURL          string
	MerchantID          int
	MerchantDisplayName string
	HTTPTimeout         time.Duration
	RequestsPerSecond   int
	ReconcileInterval   time.Duration

	// Presenter drives the payment sheet. Nil leaves checkout wired to a
	// presenter that refuses every attempt, which is the correct behaviour
	// until a payment provider is configured.
	Presenter checkoutsvc.PaymentPresenter
}

// Application ties the storefront services together and manages their
// lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Auth       *authsvc.Service
	Catalog    *catalogsvc.Service
	Cart       *cartsvc.Service
	Orders     *orderssvc.Service
	Agents     *agentssvc.Service
	Checkout   *checkoutsvc.Service
	Reconciler *checkoutsvc.Reconciler
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, cfg Config, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if cfg.MerchantID == 0 {
		return nil, fmt.Errorf("merchant id is required")
	}

	mem := memory.New()
	if stores.Sessions == nil {
		stores.Sessions = mem
	}
	if stores.Selections == nil {
		stores.Selections = mem
	}
	if stores.Journal == nil {
		stores.Journal = mem
	}

	// The HTTP client resolves its bearer token through the auth service,
	// which is itself built on the client. The late-bound pointer breaks
	// the cycle; Token returns empty until login succeeds.
	var authService *authsvc.Service
	httpClient := httputil.NewClient(httputil.ClientConfig{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Tokens: httputil.TokenSourceFunc(func(ctx context.Context) (string, error) {
			if authService == nil {
				return "", nil
			}
			return authService.Token(ctx)
		}),
	})

	authService = authsvc.New(authsvc.NewClient(httpClient), stores.Sessions, log)
	catalogService := catalogsvc.New(catalogsvc.NewClient(httpClient), cfg.MerchantID, log)
	cartService := cartsvc.New(log)
	ordersService := orderssvc.New(orderssvc.NewClient(httpClient), cfg.MerchantID, log)
	agentsService := agentssvc.New(agentssvc.NewClient(httpClient), stores.Selections, log)

	presenter := cfg.Presenter
	if presenter == nil {
		presenter = checkoutsvc.UnconfiguredPresenter{}
	}

	checkoutService := checkoutsvc.New(checkoutsvc.Config{
		Cart:       cartService,
		Intents:    checkoutsvc.NewPaymentIntentClient(httpClient, log),
		Presenter:  presenter,
		Orders:     ordersService,
		Agents:     agentsService,
		Selections: stores.Selections,
		Journal:    stores.Journal,
		MerchantID: cfg.MerchantID,
		Sheet:      checkoutsvc.DefaultSheetConfig(cfg.MerchantDisplayName),
	}, log)

	reconciler := checkoutsvc.NewReconciler(stores.Journal, log).WithInterval(cfg.ReconcileInterval)

	manager := system.NewManager()
	if err := manager.Register(reconciler); err != nil {
		return nil, fmt.Errorf("register %s: %w", reconciler.Name(), err)
	}

	return &Application{
		manager:    manager,
		log:        log,
		Auth:       authService,
		Catalog:    catalogService,
		Cart:       cartService,
		Orders:     ordersService,
		Agents:     agentsService,
		Checkout:   checkoutService,
		Reconciler: reconciler,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
