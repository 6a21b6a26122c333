// Package payment reconciles booking state against the external
// payment gateway: it requests payment intents and consumes the
// gateway's asynchronous webhook events.
package payment

import "context"

// Intent is the gateway's view of a charge attempt.  ClientSecret is
// the client-side continuation token; the engine returns it verbatim
// and never interprets its contents.
type Intent struct {
    ID           string
    ClientSecret string
    Status       string
}

// Gateway abstracts the external payment collaborator.  Amounts are
// expressed in the smallest currency unit, as gateways expect.
type Gateway interface {
    CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (Intent, error)
}
