package domain

import "strings"

// SubscriptionTier описывает тариф пользователя.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
	TierPro     SubscriptionTier = "pro"
)

// ParseTier возвращает тариф, по умолчанию free.
func ParseTier(raw string) SubscriptionTier {
	switch SubscriptionTier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierPremium:
		return TierPremium
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}
