package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/logger"
)

// Verifier checks that an inbound payload genuinely originates from the
// payment processor. The payload must be the exact bytes received: the
// signature is computed over the wire form, so re-encoding breaks it.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	if secret == "" {
		logger.Log.Warn("webhook signing secret is not configured, payloads will be accepted unverified; do not run this in production")
	}
	return &Verifier{secret: secret}
}

// Verify returns the decoded event and whether it was accepted without
// signature verification (trust mode, local development only). A signature
// that does not match is an error: the caller must not interpret the event.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripe.Event, bool, error) {
	if v.secret == "" {
		var e stripe.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return stripe.Event{}, false, fmt.Errorf("decode unverified event: %w", err)
		}
		logger.Log.Warn("accepted webhook event without signature verification",
			zap.String("type", string(e.Type)))
		return e, true, nil
	}

	e, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, false, fmt.Errorf("verify webhook signature: %w", err)
	}
	return e, false, nil
}
