package v1

import (
	"net/http"

	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Domain activity
// @Description Events consumed from the domain-events topic for this domain, newest first
// @Tags 		domains
// @Produce 	json
// @Param 		id 	  path  string true  "Domain ID(uuid)"
// @Param 		limit query int    false "Max items(max 100)" default(20)
// @Success 	200 {object} response.Activity
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	503 {object} response.Error "Temporarily unavailable"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id}/activity [get]
func (r *V1) getActivity(ctx *fiber.Ctx) error {
	id, ok := validate.ID(ctx.Params("id"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	items, err := r.activity.Feed(ctx.UserContext(), id, validate.ActivityLimit(ctx.QueryInt("limit", 0)))
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - getActivity")
	}

	if items == nil {
		items = []dto.ActivityItem{}
	}

	return ctx.Status(http.StatusOK).JSON(response.Activity{DomainID: id.String(), Items: items})
}
