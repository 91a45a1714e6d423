package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chronoshop/storefront/internal/order/domain"
	"github.com/chronoshop/storefront/pkg/tracing"
)

var (
	ErrEmptyOrder    = errors.New("order has no items")
	ErrBadQuantity   = errors.New("item quantity must be positive")
	ErrOrderNotFound = errors.New("order not found")
)

type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	gateway CheckoutGateway
}

func NewService(log *slog.Logger, repo OrderRepository, gateway CheckoutGateway) *Service {
	return &Service{log: log, repo: repo, gateway: gateway}
}

type CheckoutResult struct {
	Order            domain.Order `json:"order"`
	PaymentSessionID string       `json:"paymentSessionId,omitempty"`
}

// Checkout creates a PENDING order and, when the gateway is configured,
// opens a payment session for it. A gateway failure leaves the order local;
// verification later falls back to the stored status.
func (s *Service) Checkout(ctx context.Context, userID, shippingAddress, email, phone string, items []domain.Item) (CheckoutResult, error) {
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return CheckoutResult{}, ErrBadQuantity
		}
	}

	o := domain.New("ord_"+uuid.NewString(), userID, shippingAddress, items)

	var sessionID string
	if s.gateway.Configured() {
		gwID, sess, err := s.gateway.CreateSession(ctx, o.ID, o.TotalCents, userID, email, phone)
		if err != nil {
			s.log.Error("gateway session creation failed", "order_id", o.ID, "err", err)
		} else {
			o.GatewayOrderID = gwID
			sessionID = sess
		}
	}

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Items:      o.Items,
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if err := s.repo.SaveWithOutbox(ctx, o, "OrderCreated", payload, tracing.Traceparent(ctx)); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Order: o, PaymentSessionID: sessionID}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID, normalizeLimit(limit), offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	return s.repo.List(ctx, normalizeLimit(limit), offset)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
