package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/pkg/response"
)

// statusFor maps each failure kind to its transport status.
var statusFor = map[domain.Kind]int{
	domain.KindUnauthenticated:  fiber.StatusUnauthorized,
	domain.KindForbidden:        fiber.StatusForbidden,
	domain.KindValidationFailed: fiber.StatusBadRequest,
	domain.KindNotFound:         fiber.StatusNotFound,
	domain.KindDuplicateUser:    fiber.StatusConflict,
	domain.KindUploadFailed:     fiber.StatusBadGateway,
	domain.KindGeocodingFailed:  fiber.StatusBadGateway,
	domain.KindInternal:         fiber.StatusInternalServerError,
}

// ErrorHandler is the global error handler: every failure leaves the app
// through here and comes out in the standard error envelope. The wrapped
// cause is logged with the trace ID but never sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		code, ok := statusFor[derr.Kind]
		if !ok {
			code = fiber.StatusInternalServerError
		}
		var details interface{}
		if derr.Kind == domain.KindValidationFailed && len(derr.Fields) > 0 {
			details = fiber.Map{"fields": derr.Fields}
		}
		logFailure(c, code, derr)
		return response.Error(c, derr.Message, code, details)
	}

	// Fiber-level errors (404 route not found, body too large, ...)
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return response.Error(c, ferr.Message, ferr.Code, nil)
	}

	log.Error().Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Err(err).Msg("Unhandled error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func logFailure(c *fiber.Ctx, code int, derr *domain.Error) {
	evt := log.Warn()
	if code >= 500 {
		evt = log.Error()
	}
	evt.Str("trace_id", GetTraceID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Str("kind", string(derr.Kind)).
		Err(derr.Unwrap()).
		Msg(derr.Message)
}
