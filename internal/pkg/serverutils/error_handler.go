package serverutils

import (
	"errors"

	"ai-qa-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrInvalidChunkConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrEmbeddingFailed), errors.Is(err, apperror.ErrGenerationFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into a JSON error body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusFor(err)
		body := ErrorResponse(status, err.Error())
		body.ErrorKind = apperror.Kind(err)
		if status == fiber.StatusInternalServerError {
			body.Message = "internal server error"
		}
		return ctx.Status(status).JSON(body)
	}
}
