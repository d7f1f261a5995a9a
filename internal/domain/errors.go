package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSign       = errors.New("invalid zodiac sign")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrCacheMiss         = errors.New("cache miss")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrOTPCooldown       = errors.New("otp already sent")
	ErrOTPInvalid        = errors.New("invalid or expired otp")
	ErrOTPAttempts       = errors.New("maximum otp verification attempts exceeded")
	ErrOTPDelivery       = errors.New("failed to send otp")
	ErrBirthDataRequired = errors.New("birth data is missing")
)

// ValidationError описывает некорректное поле запроса.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is позволяет сравнивать через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError несёт сообщение для клиента.
type NotFoundError struct {
	Message string
}

// HoroscopeUnavailable формирует ошибку отсутствия опубликованного гороскопа.
func HoroscopeUnavailable(sign Sign, date string) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("Horoscope not available for %s on %s", sign, date)}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Is позволяет сравнивать через errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CooldownError сообщает, что код уже отправлен и ещё действует.
type CooldownError struct {
	SecondsLeft int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("OTP already sent. Please wait %d seconds before requesting again.", e.SecondsLeft)
}

// Is позволяет сравнивать через errors.Is(err, ErrOTPCooldown).
func (e *CooldownError) Is(target error) bool {
	return target == ErrOTPCooldown
}

// StoreError помечает ошибку хранилища как ErrStoreUnavailable, сохраняя причину.
func StoreError(op string, err error) error {
	return fmt.Errorf("postgres %s: %w: %w", op, ErrStoreUnavailable, err)
}

// CacheError помечает ошибку кэша как ErrCacheUnavailable.
func CacheError(op string, err error) error {
	return fmt.Errorf("cache %s: %w: %w", op, ErrCacheUnavailable, err)
}

// BirthDataError сообщает, что для операции не хватает данных рождения.
type BirthDataError struct {
	Message string
}

func (e *BirthDataError) Error() string {
	return e.Message
}

// Is позволяет сравнивать через errors.Is(err, ErrBirthDataRequired).
func (e *BirthDataError) Is(target error) bool {
	return target == ErrBirthDataRequired
}
