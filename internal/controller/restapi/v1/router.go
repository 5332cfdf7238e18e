package v1

import (
	"github.com/andreyxaxa/Domain-Service/internal/usecase"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewDomainRoutes(apiV1Group fiber.Router, domains usecase.DomainRecordUseCase, activity usecase.ActivityUseCase, l logger.Interface) {
	r := &V1{domains: domains, activity: activity, logger: l}

	domainGroup := apiV1Group.Group("/domains")
	{
		domainGroup.Post("/", r.createDomain)
		domainGroup.Get("/:id", r.getDomain)
		domainGroup.Put("/:id/name", r.renameDomain)
		domainGroup.Delete("/:id", r.deleteDomain)
		domainGroup.Post("/:id/restore", r.restoreDomain)
		domainGroup.Post("/:id/verify", r.verifyDomain)
		domainGroup.Get("/:id/activity", r.getActivity)
	}

	userGroup := apiV1Group.Group("/users/:userId/domains")
	{
		userGroup.Get("/", r.listDomains)
		userGroup.Get("/verified", r.listVerified)
		userGroup.Get("/deleted", r.listDeleted)
		userGroup.Get("/exists", r.domainExists)
	}
}
