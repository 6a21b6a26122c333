package payment

import (
    "context"

    "github.com/stripe/stripe-go/v81"
    "github.com/stripe/stripe-go/v81/paymentintent"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct{}

// NewStripeGateway configures the Stripe client with the given secret
// key and returns a gateway.
func NewStripeGateway(secretKey string) *StripeGateway {
    stripe.Key = secretKey
    return &StripeGateway{}
}

// CreateIntent creates a payment intent with automatic payment methods
// enabled so the client can complete it with whatever method the
// account supports.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (Intent, error) {
    params := &stripe.PaymentIntentParams{
        Amount:   stripe.Int64(amountMinorUnits),
        Currency: stripe.String(currency),
        AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
            Enabled: stripe.Bool(true),
        },
    }
    params.Context = ctx
    for k, v := range metadata {
        params.AddMetadata(k, v)
    }

    pi, err := paymentintent.New(params)
    if err != nil {
        return Intent{}, err
    }
    return Intent{
        ID:           pi.ID,
        ClientSecret: pi.ClientSecret,
        Status:       string(pi.Status),
    }, nil
}
