package restapi

import (
	"github.com/andreyxaxa/Domain-Service/config"
	v1 "github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Domain-Service/internal/usecase"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Domain service
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	domains usecase.DomainRecordUseCase,
	activity usecase.ActivityUseCase,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// K8s probe
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewDomainRoutes(apiV1Group, domains, activity, l)
	}
}
