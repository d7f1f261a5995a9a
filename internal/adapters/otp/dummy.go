package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
)

// Dummy пишет код в лог вместо отправки SMS.
type Dummy struct {
	log zerolog.Logger
	now func() time.Time
}

// NewDummy создаёт отправитель для разработки.
func NewDummy(log zerolog.Logger) *Dummy {
	return &Dummy{log: log, now: time.Now}
}

// SendOTP логирует код и сообщает об успешной отправке.
func (d *Dummy) SendOTP(_ context.Context, phone, code string) (domain.OTPResult, error) {
	d.log.Info().Str("phone", phone).Str("otp", code).Msg("dummy otp sent")
	return domain.OTPResult{
		MessageID: fmt.Sprintf("dummy_%d", d.now().UnixMilli()),
		Message:   "OTP sent successfully (dummy)",
	}, nil
}
