// Package integrations wires the provider adapters, the credential store and their HTTP surface.
package integrations

import (
	"fmt"

	"prospecting_backend/internal/events"
	apphttp "prospecting_backend/internal/http"
	"prospecting_backend/internal/integrations/apify"
	"prospecting_backend/internal/integrations/apollo"
	"prospecting_backend/internal/integrations/credentials"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/handler"
	"prospecting_backend/internal/integrations/instantly"
	"prospecting_backend/internal/integrations/registry"
	"prospecting_backend/internal/integrations/signalhire"
	"prospecting_backend/internal/integrations/snovio"
	"prospecting_backend/internal/integrations/zapi"
	"prospecting_backend/platform/config"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleAdmin is the token role allowed to change provider credentials.
const RoleAdmin = "admin"

// Module is the integrations bounded context implementing http.Module.
type Module struct {
	handler     *handler.Handler
	credentials *credentials.Service
	executor    *external.Executor
	registry    *registry.Registry
	signalhire  *signalhire.Client
}

// NewModule builds the executor, the credential store and every adapter.
// recorder may be nil.
func NewModule(pool *pgxpool.Pool, cfg config.IntegrationConfig, bus events.Bus, recorder external.Recorder, val *validator.Validator, log *logger.Logger) (*Module, error) {
	cipher, err := credentials.NewCipher(cfg.GetCredentialMasterKey())
	if err != nil {
		return nil, fmt.Errorf("credential cipher: %w", err)
	}
	creds := credentials.NewService(credentials.NewRepository(pool), cipher, bus, log)

	catalog := external.DefaultCatalog()
	opts := []external.ExecutorOption{
		external.WithClassifier(external.NewClassifier(catalog, cfg.GetDefaultLocale())),
	}
	if recorder != nil {
		opts = append(opts, external.WithRecorder(recorder))
	}
	exec := external.NewExecutor(external.Options{
		Timeout: cfg.GetExternalTimeout(),
		Backoff: cfg.GetExternalRetryBackoff(),
	}, log, opts...)

	sh := signalhire.New(exec, creds)
	reg := registry.New(
		apollo.New(exec, creds),
		sh,
		snovio.New(exec, creds),
		instantly.New(exec, creds),
		apify.New(exec, creds),
		zapi.New(exec, creds),
	)

	return &Module{
		handler:     handler.New(creds, reg, catalog, val),
		credentials: creds,
		executor:    exec,
		registry:    reg,
		signalhire:  sh,
	}, nil
}

func (m *Module) Name() string {
	return "integrations"
}

// Credentials returns the credential store for other modules.
func (m *Module) Credentials() *credentials.Service { return m.credentials }

func (m *Module) Executor() *external.Executor { return m.executor }

func (m *Module) Registry() *registry.Registry { return m.registry }

// SignalHire returns the adapter the lookup flow drives.
func (m *Module) SignalHire() *signalhire.Client { return m.signalhire }

// RegisterRoutes mounts integration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/integrations")
	g.GET("", m.handler.List)
	g.GET("/test", m.handler.TestAll)
	g.PUT("/:service/credential", httpkit.RequireRole(RoleAdmin), m.handler.SaveCredential)
	g.DELETE("/:service/credential", httpkit.RequireRole(RoleAdmin), m.handler.DeleteCredential)
	g.POST("/:service/test", m.handler.Test)
}

var _ apphttp.Module = (*Module)(nil)
