package otp

import (
	"strings"

	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
)

const (
	ProviderDummy = "dummy"
	ProviderMSG91 = "msg91"
)

// New выбирает отправитель по имени провайдера; неизвестное имя даёт dummy.
func New(provider string, cfg MSG91Config, log zerolog.Logger) (domain.OTPSender, string) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderMSG91:
		return NewMSG91(cfg), ProviderMSG91
	default:
		return NewDummy(log), ProviderDummy
	}
}
