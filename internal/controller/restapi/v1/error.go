package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

// statusClientClosedRequest is nginx's code for a client that hung up before
// the response was ready.
const statusClientClosedRequest = 499

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// useCaseError maps err to a status code by its kind. Only internal and
// unavailable errors are logged; the rest are the caller's fault, including
// a request canceled by a client that disconnected.
func (r *V1) useCaseError(ctx *fiber.Ctx, err error, where string) error {
	switch errs.KindOf(err) {
	case errs.KindInvalidArgument:
		return errorResponse(ctx, http.StatusBadRequest, rootMessage(err))
	case errs.KindNotFound:
		return errorResponse(ctx, http.StatusNotFound, "domain not found")
	case errs.KindConflict:
		return errorResponse(ctx, http.StatusConflict, rootMessage(err))
	case errs.KindCanceled:
		r.logger.Debug("%s - request canceled: %v", where, err)

		return ctx.SendStatus(statusClientClosedRequest)
	case errs.KindUnavailable:
		r.logger.Error(err, where)

		return errorResponse(ctx, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		r.logger.Error(err, where)

		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}
}

var ruleMessages = []struct {
	err error
	msg string
}{
	{errs.ErrInvalidName, "invalid domain name"},
	{errs.ErrInvalidOwner, "invalid user id"},
	{errs.ErrInvalidToken, "invalid verification token"},
	{errs.ErrNameTaken, "domain name already exists for this user"},
	{errs.ErrAlreadyDeleted, "domain is already deleted"},
	{errs.ErrNotDeleted, "domain is not deleted"},
}

// rootMessage hides the use case call chain and names the rule that was
// broken.
func rootMessage(err error) string {
	for _, m := range ruleMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	return errs.KindOf(err).String()
}
