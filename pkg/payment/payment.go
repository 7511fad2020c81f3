// Package payment talks to Stripe Checkout. Callers see provider-neutral
// types only; stripe-go stays behind this package.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

const (
	EventSessionCompleted      = "checkout.session.completed"
	EventSessionAsyncSucceed   = "checkout.session.async_payment_succeeded"
	EventSessionExpired        = "checkout.session.expired"
	EventPaymentIntentFailed   = "payment_intent.payment_failed"
	MetadataOrderID            = "order_id"
	MetadataUserID             = "user_id"
	CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a decimal amount to integer cents, rounding half away
// from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	OrderID        string
	UserID         string
	CustomerEmail  string
	Currency       string
	Lines          []LineItem
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Session is the provider's view of one checkout attempt.
type Session struct {
	ID      string
	URL     string
	Paid    bool
	Expired bool
	OrderID string
	UserID  string
}

// Event is a verified webhook notification reduced to what reconciliation
// needs.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

type StripeProvider struct {
	sc            *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{
		sc:            client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				MetadataOrderID: req.OrderID,
				MetadataUserID:  req.UserID,
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(line.UnitAmount),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	params.AddMetadata(MetadataOrderID, req.OrderID)
	params.AddMetadata(MetadataUserID, req.UserID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return fromStripe(sess), nil
}

func (p *StripeProvider) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := p.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return fromStripe(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	switch out.Type {
	case EventSessionCompleted, EventSessionAsyncSucceed, EventSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripe(&sess)
	case EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Session = &Session{
			OrderID: pi.Metadata[MetadataOrderID],
			UserID:  pi.Metadata[MetadataUserID],
		}
	}
	return out, nil
}

func fromStripe(sess *stripe.CheckoutSession) *Session {
	return &Session{
		ID:      sess.ID,
		URL:     sess.URL,
		Paid:    sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired: sess.Status == stripe.CheckoutSessionStatusExpired,
		OrderID: sess.Metadata[MetadataOrderID],
		UserID:  sess.Metadata[MetadataUserID],
	}
}
