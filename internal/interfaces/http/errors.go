package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Tweltz1/Project-Tracking/internal/application/dto"
	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// errorMapping del error de dominio a estado HTTP y código. El orden importa: las variantes
// de ErrInvalidInput van antes que el error base.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrMissingID, fiber.StatusBadRequest, "MISSING_ID"},
	{domain.ErrIDMismatch, fiber.StatusBadRequest, "ID_MISMATCH"},
	{domain.ErrMissingRequiredField, fiber.StatusBadRequest, "MISSING_REQUIRED_FIELD"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE_ID"},
	{domain.ErrInsufficientQuantity, fiber.StatusConflict, "INSUFFICIENT_QUANTITY"},
	{domain.ErrQuantityMismatch, fiber.StatusConflict, "QUANTITY_MISMATCH"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrNoOpRejected, fiber.StatusUnprocessableEntity, "NO_OP_REJECTED"},
}

// writeError traduce el error del caso de uso a la respuesta JSON.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verr.Error()})
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: userMessage(err)})
		}
	}
	reqID, _ := c.Locals(LocalRequestID).(string)
	log.Error().Err(err).Str("path", c.Path()).Str("request_id", reqID).Msg("error no controlado")
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: domain.ErrStoreUnavailable.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "internal error"})
}

// userMessage quita el prefijo genérico "invalid input: " de las variantes.
func userMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
}
