package application

import (
	"context"
	"time"

	orderdomain "github.com/chronoshop/storefront/internal/order/domain"
	"github.com/chronoshop/storefront/internal/payment/domain"
)

const (
	defaultPollAttempts = 3
	defaultPollDelay    = 2 * time.Second
)

// Poller re-runs Verify until a terminal status or the attempt budget runs
// out. It backs the checkout success page, which needs a settled answer but
// must give up on a slow gateway.
type Poller struct {
	svc      *Service
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewPoller(svc *Service) *Poller {
	return &Poller{
		svc:      svc,
		attempts: defaultPollAttempts,
		delay:    defaultPollDelay,
		sleep:    sleepCtx,
	}
}

func (p *Poller) Wait(ctx context.Context, orderID, gatewayOrderID string) (domain.Result, error) {
	var res domain.Result
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return res, err
			}
		}
		var err error
		res, err = p.svc.Verify(ctx, orderID, gatewayOrderID)
		if err != nil {
			return res, err
		}
		if res.Status != orderdomain.PaymentPending {
			return res, nil
		}
	}
	res.Message = "payment is still processing"
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
