package handler

import (
    "encoding/json"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/stripe/stripe-go/v81"
    "github.com/stripe/stripe-go/v81/webhook"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/payment"
)

// PaymentHandler serves payment intent creation and the gateway
// webhook.  Signature verification happens here; everything after a
// verified event is the payment service's problem.
type PaymentHandler struct {
    Svc           *payment.Service
    WebhookSecret string
    Currency      string
}

func NewPaymentHandler(svc *payment.Service, webhookSecret, currency string) *PaymentHandler {
    return &PaymentHandler{Svc: svc, WebhookSecret: webhookSecret, Currency: currency}
}

type createIntentReq struct {
    BookingID uint64 `json:"booking_id"`
    Currency  string `json:"currency"`
}

// CreateIntent starts payment collection for one of the caller's
// pending bookings.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    uid := currentUser(c)
    if uid == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createIntentReq
    if err := c.Bind(&req); err != nil || req.BookingID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
    }

    ctx := c.Request().Context()
    b, err := h.Svc.BookingForUser(ctx, req.BookingID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if b == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    }
    role, _ := c.Get("role").(string)
    if role != model.RoleAdmin && b.UserID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    currency := req.Currency
    if currency == "" {
        currency = h.Currency
    }
    res, err := h.Svc.RequestPayment(ctx, b.ID, b.TotalAmount, currency)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Webhook receives gateway events.  The raw body is verified against
// the signing secret before anything is decoded; unverifiable payloads
// get 400 so the gateway retries, verified-but-irrelevant events get
// 200 so it stops.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
    }
    sig := c.Request().Header.Get("Stripe-Signature")
    event, err := webhook.ConstructEvent(body, sig, h.WebhookSecret)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
    }

    switch event.Type {
    case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
        var pi stripe.PaymentIntent
        if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
        }
        ev := payment.Event{Kind: payment.EventKind(event.Type), IntentID: pi.ID}
        if pi.PaymentMethod != nil {
            ev.PaymentMethod = pi.PaymentMethod.ID
        }
        if err := h.Svc.HandleGatewayEvent(c.Request().Context(), ev); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event processing failed"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}
