package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
)

// Envelope: общий формат ответов API.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody описывает ошибку для клиента.
type ErrorBody struct {
	Message  string `json:"message"`
	Reason   string `json:"reason"`
	TimeLeft int    `json:"timeLeft,omitempty"`
}

// WriteJSON пишет JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK отправляет успешный ответ.
func WriteOK(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// WriteFail отправляет ошибку с машинной причиной.
func WriteFail(w http.ResponseWriter, status int, reason, message string) {
	WriteJSON(w, status, Envelope{Error: &ErrorBody{Message: message, Reason: reason}})
}

// Failure: ответ клиенту на ошибку.
type Failure struct {
	Status int
	Body   ErrorBody
}

// Classify сопоставляет ошибку статусу и стабильной причине. Внутренние сообщения наружу не попадают.
func Classify(err error) Failure {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		cooldown   *domain.CooldownError
		birth      *domain.BirthDataError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidSign):
		return Failure{http.StatusBadRequest, ErrorBody{Message: "Invalid zodiac sign", Reason: "invalid_sign"}}
	case errors.As(err, &validation):
		return Failure{http.StatusBadRequest, ErrorBody{Message: validation.Message, Reason: "validation_error"}}
	case errors.As(err, &birth):
		return Failure{http.StatusBadRequest, ErrorBody{Message: birth.Message, Reason: "birth_data_required"}}
	case errors.As(err, &notFound):
		return Failure{http.StatusNotFound, ErrorBody{Message: notFound.Message, Reason: "not_found"}}
	case errors.As(err, &cooldown):
		return Failure{http.StatusTooManyRequests, ErrorBody{Message: cooldown.Error(), Reason: "otp_cooldown", TimeLeft: cooldown.SecondsLeft}}
	case errors.Is(err, domain.ErrOTPAttempts):
		return Failure{http.StatusBadRequest, ErrorBody{Message: "Maximum OTP verification attempts exceeded", Reason: "otp_attempts_exceeded"}}
	case errors.Is(err, domain.ErrOTPInvalid):
		return Failure{http.StatusBadRequest, ErrorBody{Message: "Invalid or expired OTP", Reason: "invalid_otp"}}
	case errors.Is(err, domain.ErrOTPDelivery):
		return Failure{http.StatusBadGateway, ErrorBody{Message: "Failed to send OTP", Reason: "otp_delivery_failed"}}
	case errors.Is(err, domain.ErrUnauthorized):
		return Failure{http.StatusUnauthorized, ErrorBody{Message: "Invalid or expired credentials", Reason: "unauthorized"}}
	case errors.Is(err, domain.ErrForbidden):
		return Failure{http.StatusForbidden, ErrorBody{Message: "Access denied. Admin privileges required", Reason: "forbidden"}}
	case errors.Is(err, domain.ErrNotFound):
		return Failure{http.StatusNotFound, ErrorBody{Message: "Not found", Reason: "not_found"}}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return Failure{http.StatusInternalServerError, ErrorBody{Message: "Service temporarily unavailable", Reason: "store_unavailable"}}
	case errors.Is(err, domain.ErrCacheUnavailable):
		return Failure{http.StatusServiceUnavailable, ErrorBody{Message: "Cache temporarily unavailable", Reason: "cache_unavailable"}}
	default:
		return Failure{http.StatusInternalServerError, ErrorBody{Message: "Internal server error", Reason: "internal_error"}}
	}
}

// WriteError пишет ошибку в формате API; серверные ошибки логируются.
func WriteError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	f := Classify(err)
	if f.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", RequestID(r)).Str("path", r.URL.Path).Msg("request failed")
	}
	WriteJSON(w, f.Status, Envelope{Error: &f.Body})
}

// DecodeJSON читает тело запроса. Пустое тело допустимо.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "Invalid request body")
	}
	return nil
}
