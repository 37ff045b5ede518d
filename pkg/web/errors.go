package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
	"github.com/mustafae03/stt-tts-agent/pkg/artifact"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("web: bad request")

// classify maps err to an HTTP status, a kind and a message safe to show
// in the UI.
func classify(err error) (int, apierr.Kind, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, artifact.ErrInvalidSession):
		return fiber.StatusBadRequest, apierr.KindInvalidRequest, "Geçersiz oturum."
	case errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest, apierr.KindInvalidRequest, "Geçersiz istek."
	case errors.As(err, &fe):
		return fe.Code, apierr.KindInvalidRequest, fe.Message
	}

	switch kind := apierr.KindOf(err); kind {
	case apierr.KindRateLimit:
		return fiber.StatusTooManyRequests, kind, "Servis şu anda yoğun, lütfen biraz sonra tekrar deneyin."
	case apierr.KindAuth:
		return fiber.StatusBadGateway, kind, "Servis kimlik doğrulaması başarısız oldu."
	case apierr.KindTransient:
		return fiber.StatusServiceUnavailable, kind, "Servise ulaşılamadı, lütfen tekrar deneyin."
	case apierr.KindMalformedResponse:
		return fiber.StatusBadGateway, kind, "Servisten beklenmeyen bir yanıt alındı."
	case apierr.KindCanceled:
		return fiber.StatusRequestTimeout, kind, "İstek iptal edildi."
	default:
		return fiber.StatusInternalServerError, kind, "Bir hata oluştu, lütfen tekrar deneyin."
	}
}

// handleError is the app-wide fiber error handler.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, kind, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "status", status, "kind", kind, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(errorResponse{Error: msg, Kind: string(kind)})
}
