package service

import (
	"fmt"
	"strings"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
)

// DefaultSharePaymentKey is printed when no payment key is configured
const DefaultSharePaymentKey = "[YOUR PAYMENT KEY]"

// BuildShareMessage renders the reminder sent to the people splitting a subscription
func BuildShareMessage(sub *domain.Subscription, paymentKey string) (string, error) {
	if sub == nil || sub.SharedCount() <= 1 {
		return "", domain.ErrNotShared
	}
	if strings.TrimSpace(paymentKey) == "" {
		paymentKey = DefaultSharePaymentKey
	}

	var b strings.Builder
	b.WriteString("Reminder - Cofre Forte:\n")
	fmt.Fprintf(&b, "Subscription: %s\n", sub.Name)
	fmt.Fprintf(&b, "Total: %s\n", sub.Value.StringFixed(2))
	fmt.Fprintf(&b, "Our share (%d people): %s each.\n\n", sub.SharedCount(), billing.UserShare(sub).StringFixed(2))
	fmt.Fprintf(&b, "My payment key: %s", paymentKey)
	return b.String(), nil
}
