package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentProvider hosts the payment page. *payment.StripeProvider implements
// it.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
	GetSession(ctx context.Context, sessionID string) (*payment.Session, error)
}

type CheckoutConfig struct {
	FrontendURL string
	Currency    string
}

// CheckoutResult is an order together with where to pay for it.
type CheckoutResult struct {
	Order      *model.Order `json:"order"`
	SessionID  string       `json:"session_id,omitempty"`
	PaymentURL string       `json:"url,omitempty"`
}

type CheckoutService interface {
	// Checkout places the order and then opens a payment session for it.
	// When only the second step fails the pending order is still returned.
	Checkout(ctx context.Context, identity model.Identity, key string) (*CheckoutResult, error)
	CreatePaymentSession(ctx context.Context, identity model.Identity, orderID uuid.UUID) (*CheckoutResult, error)
	// ConfirmPayment reconciles from the success redirect.
	ConfirmPayment(ctx context.Context, identity model.Identity, sessionID string) (*model.Order, error)
	// HandleWebhook reconciles from a verified provider event. A non-nil
	// error means the event must be delivered again.
	HandleWebhook(ctx context.Context, event *payment.Event) error
}

type checkoutService struct {
	orders   OrderService
	store    repository.Store
	provider PaymentProvider
	events   EventPublisher
	cfg      CheckoutConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewCheckoutService wires the coordinator. provider may be nil, in which
// case every payment call fails with ErrPaymentsDisabled.
func NewCheckoutService(orders OrderService, store repository.Store, provider PaymentProvider, events EventPublisher, cfg CheckoutConfig, log *zap.Logger) CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &checkoutService{
		orders:   orders,
		store:    store,
		provider: provider,
		events:   events,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, identity model.Identity, key string) (*CheckoutResult, error) {
	order, _, err := s.orders.PlaceOrder(ctx, identity, key)
	if err != nil {
		return nil, err
	}
	res, err := s.CreatePaymentSession(ctx, identity, order.ID)
	if err != nil {
		return &CheckoutResult{Order: order}, err
	}
	return res, nil
}

func (s *checkoutService) CreatePaymentSession(ctx context.Context, identity model.Identity, orderID uuid.UUID) (*CheckoutResult, error) {
	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}
	order, err := s.orders.GetOrder(ctx, identity.UserID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPending {
		return nil, ErrOrderNotPayable
	}
	if order.PaymentSessionID != nil && order.PaymentURL != "" {
		current := *order.PaymentSessionID
		if !s.sessionExpired(ctx, order.ID, current) {
			return &CheckoutResult{Order: order, SessionID: current, PaymentURL: order.PaymentURL}, nil
		}
		if _, err := s.retireSession(ctx, order.ID, current); err != nil {
			return nil, err
		}
		if order, err = s.orders.GetOrder(ctx, identity.UserID, orderID); err != nil {
			return nil, err
		}
		if order.Status != model.OrderPending {
			return nil, ErrOrderNotPayable
		}
		if order.PaymentSessionID != nil && order.PaymentURL != "" {
			// Another request already opened the replacement.
			return &CheckoutResult{Order: order, SessionID: *order.PaymentSessionID, PaymentURL: order.PaymentURL}, nil
		}
	}

	req := s.sessionRequest(order)
	sess, err := s.provider.CreateSession(ctx, req)
	if err != nil {
		s.log.Error("payment session creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPaymentProvider, err)
	}

	if err := s.store.Orders().SetPaymentSession(ctx, order.ID, sess.ID, sess.URL); err != nil {
		// The provider hands back the same session for the same idempotency
		// key, so a retry repairs this.
		s.log.Error("failed to store payment session",
			zap.String("order_id", order.ID.String()),
			zap.String("session_id", sess.ID),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("payment session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sess.ID))

	sessionID := sess.ID
	order.PaymentSessionID = &sessionID
	order.PaymentURL = sess.URL
	return &CheckoutResult{Order: order, SessionID: sess.ID, PaymentURL: sess.URL}, nil
}

// sessionExpired asks the provider whether a stored session can no longer
// be paid. Lookup failures keep the session.
func (s *checkoutService) sessionExpired(ctx context.Context, orderID uuid.UUID, sessionID string) bool {
	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		s.log.Warn("could not check payment session, reusing it",
			zap.String("order_id", orderID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false
	}
	return sess.Expired && !sess.Paid
}

// retireSession detaches an expired session so the next request opens a new
// one under a fresh idempotency key.
func (s *checkoutService) retireSession(ctx context.Context, orderID uuid.UUID, sessionID string) (bool, error) {
	ok, err := s.store.Orders().ClearPaymentSession(ctx, orderID, sessionID)
	if err != nil {
		s.log.Error("failed to retire expired payment session",
			zap.String("order_id", orderID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false, storeError(err)
	}
	if ok {
		s.log.Info("expired payment session retired",
			zap.String("order_id", orderID.String()),
			zap.String("session_id", sessionID))
	}
	return ok, nil
}

// sessionIdempotencyKey is stable per attempt so retries after a failed
// write get the same session back, while a retired session never does.
func sessionIdempotencyKey(order *model.Order) string {
	if order.PaymentAttempts == 0 {
		return "checkout-" + order.ID.String()
	}
	return fmt.Sprintf("checkout-%s-%d", order.ID, order.PaymentAttempts)
}

func (s *checkoutService) sessionRequest(order *model.Order) payment.SessionRequest {
	base := strings.TrimRight(s.cfg.FrontendURL, "/")
	lines := make([]payment.LineItem, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, payment.LineItem{
			Name:       l.ProductTitle,
			UnitAmount: payment.MinorUnits(l.Price),
			Quantity:   int64(l.Quantity),
		})
	}
	return payment.SessionRequest{
		OrderID:        order.ID.String(),
		UserID:         order.UserID.String(),
		CustomerEmail:  order.Email,
		Currency:       s.cfg.Currency,
		Lines:          lines,
		SuccessURL:     base + "/checkout/success?session_id=" + payment.CheckoutSessionPlaceholder,
		CancelURL:      base + "/cart",
		IdempotencyKey: sessionIdempotencyKey(order),
	}
}

func (s *checkoutService) ConfirmPayment(ctx context.Context, identity model.Identity, sessionID string) (*model.Order, error) {
	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}
	if sessionID == "" {
		return nil, invalidInput("session_id is required")
	}

	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentProvider, err)
	}

	order, err := s.orderForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	if order.UserID != identity.UserID {
		return nil, ErrOrderNotFound
	}

	if sess.Paid {
		if err := s.reconcilePaid(ctx, order.ID, sess.ID); err != nil {
			return nil, err
		}
	}
	return s.orders.GetOrder(ctx, identity.UserID, order.ID)
}

func (s *checkoutService) HandleWebhook(ctx context.Context, event *payment.Event) error {
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	switch event.Type {
	case payment.EventSessionCompleted, payment.EventSessionAsyncSucceed:
		if event.Session == nil {
			log.Warn("webhook without session payload")
			return nil
		}
		if !event.Session.Paid {
			log.Info("checkout completed but payment still pending", zap.String("session_id", event.Session.ID))
			return nil
		}
		order, err := s.orderForSession(ctx, event.Session)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				log.Error("paid session has no matching order",
					zap.String("session_id", event.Session.ID),
					zap.Bool("needs_recovery", true))
			}
			return err
		}
		return s.reconcilePaid(ctx, order.ID, event.Session.ID)

	case payment.EventSessionExpired:
		// The order stays pending and keeps its reserved stock; only the
		// dead session is dropped.
		if event.Session == nil || event.Session.ID == "" {
			log.Warn("expired event without session payload")
			return nil
		}
		order, err := s.orderForSession(ctx, event.Session)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				log.Info("expired session has no matching order", zap.String("session_id", event.Session.ID))
				return nil
			}
			return err
		}
		ok, err := s.retireSession(ctx, order.ID, event.Session.ID)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("expired session no longer attached to a pending order",
				zap.String("order_id", order.ID.String()),
				zap.String("session_id", event.Session.ID))
		}
		return nil

	case payment.EventPaymentIntentFailed:
		// The session stays open for another attempt.
		fields := []zap.Field{}
		if event.Session != nil {
			fields = append(fields, zap.String("order_id", event.Session.OrderID), zap.String("session_id", event.Session.ID))
		}
		log.Info("payment not completed, order left pending", fields...)
		return nil

	default:
		log.Debug("unhandled webhook event")
		return nil
	}
}

func (s *checkoutService) orderForSession(ctx context.Context, sess *payment.Session) (*model.Order, error) {
	if id, err := uuid.Parse(sess.OrderID); err == nil {
		order, err := s.store.Orders().FindByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	if sess.ID != "" {
		order, err := s.store.Orders().FindByPaymentSession(ctx, sess.ID)
		if err == nil {
			return order, nil
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrOrderNotFound
}

// reconcilePaid records a successful payment: pending moves to processing
// with paid_at set. Orders already past pending are left alone.
func (s *checkoutService) reconcilePaid(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	log := s.log.With(zap.String("order_id", orderID.String()), zap.String("session_id", sessionID))

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		log.Error("failed to load paid order", zap.Bool("needs_recovery", true), zap.Error(err))
		return err
	}

	switch order.Status {
	case model.OrderProcessing, model.OrderShipped, model.OrderCompleted:
		log.Info("skipping duplicate payment confirmation", zap.String("status", string(order.Status)))
		return nil
	case model.OrderCancelled:
		log.Error("payment captured for cancelled order", zap.Bool("needs_recovery", true))
		return ErrPaidOrderCancelled
	}

	paidAt := s.now()
	ok, err := s.store.Orders().UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderProcessing,
		map[string]interface{}{"paid_at": paidAt})
	if err != nil {
		log.Error("failed to record payment", zap.Bool("needs_recovery", true), zap.Error(err))
		return storeError(err)
	}
	if !ok {
		// Lost a race; judge by whatever won.
		return s.reconcilePaid(ctx, orderID, sessionID)
	}

	order.Status = model.OrderProcessing
	order.PaidAt = &paidAt
	log.Info("payment recorded, order processing")
	publishOrder(s.events, "paid", order)
	return nil
}
