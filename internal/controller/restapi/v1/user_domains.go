package v1

import (
	"net/http"

	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	List domains
// @Description Pages through the user's live domains ordered by name
// @Tags 		users
// @Produce 	json
// @Param 		userId path  string true  "Owner"
// @Param 		skip   query int 	false "Offset" default(0)
// @Param 		take   query int 	false "Page size(max 100)" default(50)
// @Success 	200 {object} response.DomainsPage
// @Failure 	400 {object} response.Error "Invalid user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/users/{userId}/domains [get]
func (r *V1) listDomains(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	if !validate.UserID(userID) {
		return errorResponse(ctx, http.StatusBadRequest, "invalid user id")
	}

	page := dto.Page{Skip: ctx.QueryInt("skip", 0), Take: ctx.QueryInt("take", dto.DefaultTake)}

	result, err := r.domains.ListByOwner(ctx.UserContext(), userID, page)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - listDomains")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewDomainsPage(result))
}

// @Summary 	List verified domains
// @Tags 		users
// @Produce 	json
// @Param 		userId path string true "Owner"
// @Success 	200 {array}  response.Domain
// @Failure 	400 {object} response.Error "Invalid user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/users/{userId}/domains/verified [get]
func (r *V1) listVerified(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	if !validate.UserID(userID) {
		return errorResponse(ctx, http.StatusBadRequest, "invalid user id")
	}

	items, err := r.domains.ListVerified(ctx.UserContext(), userID)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - listVerified")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewDomains(items))
}

// @Summary 	List deleted domains
// @Description Most recently deleted first
// @Tags 		users
// @Produce 	json
// @Param 		userId path string true "Owner"
// @Success 	200 {array}  response.Domain
// @Failure 	400 {object} response.Error "Invalid user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/users/{userId}/domains/deleted [get]
func (r *V1) listDeleted(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	if !validate.UserID(userID) {
		return errorResponse(ctx, http.StatusBadRequest, "invalid user id")
	}

	items, err := r.domains.ListDeleted(ctx.UserContext(), userID)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - listDeleted")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewDomains(items))
}

// @Summary 	Check domain name
// @Description Reports whether the user already holds a live domain with this name
// @Tags 		users
// @Produce 	json
// @Param 		userId path  string true "Owner"
// @Param 		name   query string true "Domain name"
// @Success 	200 {object} response.Exists
// @Failure 	400 {object} response.Error "Invalid user or name"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/users/{userId}/domains/exists [get]
func (r *V1) domainExists(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	if !validate.UserID(userID) {
		return errorResponse(ctx, http.StatusBadRequest, "invalid user id")
	}

	name := ctx.Query("name")
	if !validate.DomainName(name) {
		return errorResponse(ctx, http.StatusBadRequest, "name is required")
	}

	exists, err := r.domains.Exists(ctx.UserContext(), userID, name)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - domainExists")
	}

	return ctx.Status(http.StatusOK).JSON(response.Exists{Exists: exists})
}
