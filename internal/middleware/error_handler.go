package middleware

import (
	"errors"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// StatusCode maps an error returned by a handler to its HTTP status.
func StatusCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case errors.Is(err, ledger.ErrPersistence):
		return fiber.StatusInternalServerError
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrNoSuchHolding):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidStateTransition):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientHoldings),
		errors.Is(err, ledger.ErrAmountOutOfRange):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is the global error handler. Returns the standard error format.
// Ledger errors keep their message and details; anything else that maps to 500 is masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusCode(err)
	message := "Internal Server Error"
	var details interface{} = map[string]interface{}{}

	var fe *fiber.Error
	var le *ledger.Error
	switch {
	case errors.As(err, &fe):
		message = fe.Message
	case errors.As(err, &le) && code != fiber.StatusInternalServerError:
		message = le.Message
		if le.Details != nil {
			details = le.Details
		}
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("request failed")
	}
	return response.Error(c, message, code, details)
}
