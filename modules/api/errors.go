package api

import (
	"errors"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/validation"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a taxonomy error onto its HTTP response.
// failure is the message shown for internal failures.
func (m *APIModule) respondError(c *fiber.Ctx, err error, failure string) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
	case apperror.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: appErr.Message})
	default:
		m.logger.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"requestID", requestID(c),
			"error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: failure})
	}
}

// malformedBody reports a request body that is not a JSON object.
func malformedBody(c *fiber.Ctx) error {
	errs := validation.New()
	errs.Add("body", "The request body must be a valid JSON object.")
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
		Message: errs.Summary(),
		Errors:  errs.Fields(),
	})
}

// errorHandler renders errors no handler dealt with.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		m.logger.Error("Unhandled error", "path", c.Path(), "requestID", requestID(c), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
