package handlers

import (
	"errors"
	"log"

	"accounts/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    apperrors.Code         `json:"code"`
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

// ErrorHandler renders errors returned by handlers and middleware. Domain
// errors keep their code and message; internal causes are logged and never
// sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Code:    codeForStatus(fiberErr.Code),
			Message: fiberErr.Message,
		})
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		appErr = apperrors.Internal("Internal server error", err)
	}
	if appErr.Code == apperrors.CodeInternal {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), appErr)
	}
	return c.Status(appErr.Code.HTTPStatus()).JSON(ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func codeForStatus(status int) apperrors.Code {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperrors.CodeValidation
	case fiber.StatusUnauthorized:
		return apperrors.CodeSessionInvalid
	case fiber.StatusForbidden:
		return apperrors.CodeAccessDenied
	case fiber.StatusInternalServerError:
		return apperrors.CodeInternal
	default:
		return apperrors.CodeUnknown
	}
}

func badBody(err error) error {
	log.Printf("Error parsing request body: %v", err)
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
}
