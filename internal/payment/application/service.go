package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/chronoshop/storefront/pkg/tracing"

	orderdomain "github.com/chronoshop/storefront/internal/order/domain"
	"github.com/chronoshop/storefront/internal/payment/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type Service struct {
	log     *slog.Logger
	orders  OrderStore
	gateway Gateway
}

func NewService(log *slog.Logger, orders OrderStore, gateway Gateway) *Service {
	return &Service{log: log, orders: orders, gateway: gateway}
}

// Verify implements the payment verification poll. An order that is already
// settled short-circuits without contacting the gateway. When the gateway
// cannot be reached the locally stored status is returned; only explicit
// terminal gateway statuses mutate the order.
func (s *Service) Verify(ctx context.Context, orderID, gatewayOrderID string) (domain.Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Result{}, ErrOrderNotFound
	}
	if o.Settled() {
		return domain.Result{Verified: true, Status: o.PaymentStatus, Order: &o}, nil
	}

	gwID := gatewayOrderID
	if gwID == "" {
		gwID = o.GatewayOrderID
	}
	if gwID == "" || !s.gateway.Configured() {
		return localResult(o), nil
	}

	st, err := s.gateway.OrderStatus(ctx, gwID)
	if err != nil {
		// Unable to verify right now, not a hard failure.
		s.log.Error("gateway status check failed", "order_id", orderID, "err", err)
		res := localResult(o)
		res.Message = "unable to verify payment right now"
		return res, nil
	}
	return s.ApplyGatewayStatus(ctx, o, st)
}

// ApplyGatewayStatus maps the gateway vocabulary onto local order state and
// persists the transition. Re-applying the same terminal status is a no-op
// write of identical state, so repeated polls stay idempotent.
func (s *Service) ApplyGatewayStatus(ctx context.Context, o orderdomain.Order, st domain.GatewayStatus) (domain.Result, error) {
	tr := domain.Map(st.OrderStatus)
	if tr.Status == o.Status && tr.PaymentStatus == o.PaymentStatus {
		return localResult(o), nil
	}

	eventType, payload := transitionEvent(o, tr, st)
	updated, err := s.orders.ApplyPaymentState(ctx, o.ID, tr.Status, tr.PaymentStatus, st.TransactionID, eventType, payload, tracing.Traceparent(ctx))
	if err != nil {
		return domain.Result{}, err
	}
	s.log.Info("payment state applied",
		"order_id", o.ID, "gateway_status", st.OrderStatus, "payment_status", tr.PaymentStatus)
	return localResult(updated), nil
}

func transitionEvent(o orderdomain.Order, tr domain.Transition, st domain.GatewayStatus) (string, []byte) {
	switch tr.PaymentStatus {
	case orderdomain.PaymentCompleted:
		payload, _ := json.Marshal(orderdomain.OrderPaymentCompleted{
			OrderID:       o.ID,
			TransactionID: st.TransactionID,
			TotalCents:    o.TotalCents,
		})
		return "OrderPaymentCompleted", payload
	case orderdomain.PaymentCancelled:
		payload, _ := json.Marshal(orderdomain.OrderCancelled{OrderID: o.ID, Reason: st.OrderStatus})
		return "OrderCancelled", payload
	case orderdomain.PaymentFailed:
		payload, _ := json.Marshal(orderdomain.OrderPaymentFailed{OrderID: o.ID, Reason: st.OrderStatus})
		return "OrderPaymentFailed", payload
	}
	return "", nil
}

func localResult(o orderdomain.Order) domain.Result {
	return domain.Result{
		Verified: o.Settled(),
		Status:   o.PaymentStatus,
		Order:    &o,
	}
}
