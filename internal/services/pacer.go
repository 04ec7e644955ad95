package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Pacer hands out upstream request slots.
type Pacer interface {
	Wait(ctx context.Context) error
}

// SlotPacer spaces request issuance by a fixed interval across all callers. Each
// Wait reserves the next slot under the limiter's lock, then sleeps outside it, so
// slots are granted in reservation order while requests stay concurrent in flight.
// A cancelled waiter keeps its slot consumed.
type SlotPacer struct {
	lim *rate.Limiter
}

func NewSlotPacer(interval time.Duration) *SlotPacer {
	if interval <= 0 {
		return &SlotPacer{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &SlotPacer{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *SlotPacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := p.lim.Reserve()
	if !r.OK() {
		return errors.New("pacer: slot reservation refused")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
