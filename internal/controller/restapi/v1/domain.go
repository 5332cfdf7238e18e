package v1

import (
	"net/http"

	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Create domain
// @Description Registers a domain name for a user. The record starts unverified; the response carries the verification token
// @Tags 		domains
// @Accept 		json
// @Produce 	json
// @Param 		request body request.CreateDomain true "Domain to create"
// @Success 	201 {object} response.DomainWithToken
// @Failure 	400 {object} response.Error "Invalid name or user"
// @Failure 	409 {object} response.Error "Name already used by this user"
// @Failure 	503 {object} response.Error "Temporarily unavailable"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains [post]
func (r *V1) createDomain(ctx *fiber.Ctx) error {
	var body request.CreateDomain

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}
	if !validate.DomainName(body.DomainName) {
		return errorResponse(ctx, http.StatusBadRequest, "domain_name is required")
	}
	if !validate.UserID(body.UserID) {
		return errorResponse(ctx, http.StatusBadRequest, "user_id is required")
	}

	created, err := r.domains.Create(ctx.UserContext(), dto.CreateDomain{Name: body.DomainName, OwnerID: body.UserID})
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - createDomain")
	}

	ctx.Location("/v1/domains/" + created.Record.ID.String())

	return ctx.Status(http.StatusCreated).JSON(response.DomainWithToken{
		Domain:            response.NewDomain(created.Record),
		VerificationToken: created.VerificationToken,
	})
}

// @Summary 	Get domain
// @Description Returns a live domain owned by the user
// @Tags 		domains
// @Produce 	json
// @Param 		id 		path 	string true "Domain ID(uuid)"
// @Param 		user_id query 	string true "Owner"
// @Success 	200 {object} response.Domain
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Domain not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id} [get]
func (r *V1) getDomain(ctx *fiber.Ctx) error {
	ref, ok := domainRef(ctx, ctx.Query("user_id"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id or user_id")
	}

	rec, err := r.domains.GetByID(ctx.UserContext(), ref)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - getDomain")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewDomain(rec))
}

// @Summary 	Rename domain
// @Description Changes the name of a live domain. Verification is kept
// @Tags 		domains
// @Accept 		json
// @Produce 	json
// @Param 		id 		path string 			  true "Domain ID(uuid)"
// @Param 		request body request.RenameDomain true "New name"
// @Success 	200 {object} response.Domain
// @Failure 	400 {object} response.Error "Invalid name"
// @Failure 	404 {object} response.Error "Domain not found"
// @Failure 	409 {object} response.Error "Name already used by this user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id}/name [put]
func (r *V1) renameDomain(ctx *fiber.Ctx) error {
	var body request.RenameDomain

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}
	if !validate.DomainName(body.NewDomainName) {
		return errorResponse(ctx, http.StatusBadRequest, "new_domain_name is required")
	}

	ref, ok := domainRef(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id or user_id")
	}

	rec, err := r.domains.Rename(ctx.UserContext(), dto.RenameDomain{ID: ref.ID, OwnerID: ref.OwnerID, NewName: body.NewDomainName})
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - renameDomain")
	}

	return ctx.Status(http.StatusOK).JSON(response.NewDomain(rec))
}

// @Summary 	Delete domain
// @Description Soft-deletes a domain and drops its verification
// @Tags 		domains
// @Param		id 		path	 string true "Domain ID(uuid)"
// @Param 		user_id query 	 string true "Owner"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Domain not found"
// @Failure 	409 {object} response.Error "Already deleted"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id} [delete]
func (r *V1) deleteDomain(ctx *fiber.Ctx) error {
	ref, ok := domainRef(ctx, ctx.Query("user_id"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id or user_id")
	}

	err := r.domains.Delete(ctx.UserContext(), ref)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - deleteDomain")
	}

	return ctx.SendStatus(http.StatusNoContent)
}

// @Summary 	Restore domain
// @Description Brings a deleted domain back, unverified and with a new verification token
// @Tags 		domains
// @Accept 		json
// @Produce 	json
// @Param 		id 		path string 			   true "Domain ID(uuid)"
// @Param 		request body request.RestoreDomain true "Owner"
// @Success 	200 {object} response.DomainWithToken
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Domain not found"
// @Failure 	409 {object} response.Error "Not deleted or name taken"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id}/restore [post]
func (r *V1) restoreDomain(ctx *fiber.Ctx) error {
	var body request.RestoreDomain

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	ref, ok := domainRef(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id or user_id")
	}

	restored, err := r.domains.Restore(ctx.UserContext(), ref)
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - restoreDomain")
	}

	return ctx.Status(http.StatusOK).JSON(response.DomainWithToken{
		Domain:            response.NewDomain(restored.Record),
		VerificationToken: restored.VerificationToken,
	})
}

// @Summary 	Verify domain
// @Description Checks the verification token. A wrong token is not an error and returns verified=false
// @Tags 		domains
// @Accept 		json
// @Produce 	json
// @Param 		id 		path string 			  true "Domain ID(uuid)"
// @Param 		request body request.VerifyDomain true "Token and owner"
// @Success 	200 {object} response.Verify
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Domain not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/domains/{id}/verify [post]
func (r *V1) verifyDomain(ctx *fiber.Ctx) error {
	var body request.VerifyDomain

	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}
	if !validate.VerificationToken(body.VerificationToken) {
		return errorResponse(ctx, http.StatusBadRequest, "verification_token is required")
	}

	ref, ok := domainRef(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id or user_id")
	}

	verified, err := r.domains.Verify(ctx.UserContext(), dto.VerifyDomain{ID: ref.ID, OwnerID: ref.OwnerID, Token: body.VerificationToken})
	if err != nil {
		return r.useCaseError(ctx, err, "restapi - v1 - verifyDomain")
	}

	return ctx.Status(http.StatusOK).JSON(response.Verify{Verified: verified})
}

func domainRef(ctx *fiber.Ctx, userID string) (dto.DomainRef, bool) {
	id, ok := validate.ID(ctx.Params("id"))
	if !ok || !validate.UserID(userID) {
		return dto.DomainRef{}, false
	}

	return dto.DomainRef{ID: id, OwnerID: userID}, true
}
