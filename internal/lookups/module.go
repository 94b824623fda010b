// Package lookups runs the callback-driven SignalHire lookup flow: initiation,
// webhook resolution, expiry and long-polling.
package lookups

import (
	"prospecting_backend/internal/events"
	apphttp "prospecting_backend/internal/http"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/lookups/handler"
	"prospecting_backend/internal/lookups/repository"
	"prospecting_backend/internal/lookups/service"
	"prospecting_backend/platform/config"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the lookups bounded context implementing http.Module.
type Module struct {
	service *service.Service
	handler *handler.Handler
	webhook *handler.WebhookHandler
}

// Deps are the collaborators owned by other modules. Scheduler, Archive and Recorder are optional.
type Deps struct {
	Provider  service.LookupProvider
	Catalog   *external.Catalog
	Scheduler service.DeadlineScheduler
	Archive   handler.CallbackArchive
	Recorder  service.TransitionRecorder
}

// NewModule creates the lookups module with all its dependencies wired.
func NewModule(pool *pgxpool.Pool, cfg config.LookupConfig, deps Deps, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	signer := service.NewCallbackSigner(cfg.GetPublicBaseURL(), cfg.GetLookupCallbackSecret())

	var opts []service.Option
	if deps.Scheduler != nil {
		opts = append(opts, service.WithDeadlineScheduler(deps.Scheduler))
	}
	if deps.Recorder != nil {
		opts = append(opts, service.WithRecorder(deps.Recorder))
	}
	svc := service.New(repository.New(pool), deps.Provider, signer, bus, log, cfg.GetLookupExpiry(), opts...)

	catalog := deps.Catalog
	if catalog == nil {
		catalog = external.DefaultCatalog()
	}

	return &Module{
		service: svc,
		handler: handler.New(svc, service.NewPoller(svc), catalog, deps.Archive, val),
		webhook: handler.NewWebhookHandler(svc, signer, deps.Archive, log),
	}
}

func (m *Module) Name() string {
	return "lookups"
}

// Service exposes the lookup service to the scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the tenant API and the provider webhook.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/lookups")
	g.POST("", m.handler.Initiate)
	g.GET("/:id", m.handler.Get)
	g.GET("/:id/wait", m.handler.Wait)
	g.GET("/:id/transitions", m.handler.History)
	g.GET("/:id/deliveries", m.handler.Deliveries)

	ctx.V1.POST(service.WebhookRoute, ctx.WebhookRateLimiter.RateLimit(), m.webhook.SignalHire)
}

var _ apphttp.Module = (*Module)(nil)
