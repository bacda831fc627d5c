package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentProcessor authorizes a charge. A decline is (false, nil); errors
// are reserved for cancellation and infrastructure failures.
type PaymentProcessor interface {
	Authorize(ctx context.Context, amount decimal.Decimal) (bool, error)
}

// SimulatedPayment approves with a fixed probability after a delay.
type SimulatedPayment struct {
	Delay       time.Duration
	SuccessRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedPayment(delay time.Duration, successRate float64, seed int64) *SimulatedPayment {
	return &SimulatedPayment{Delay: delay, SuccessRate: successRate, rnd: rand.New(rand.NewSource(seed))}
}

func (p *SimulatedPayment) Authorize(ctx context.Context, _ decimal.Decimal) (bool, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64() < p.SuccessRate, nil
}

// FixedPayment always returns the same outcome, optionally waiting on
// Release first. Tests use it to hold a placement in flight.
type FixedPayment struct {
	Approve bool
	Release <-chan struct{}
}

func (p FixedPayment) Authorize(ctx context.Context, _ decimal.Decimal) (bool, error) {
	if p.Release != nil {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-p.Release:
		}
	}
	return p.Approve, ctx.Err()
}

// OrderNumbers draws order numbers in [0, 1e9).
type OrderNumbers interface {
	Next() int64
}

type RandomOrderNumbers struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomOrderNumbers(seed int64) *RandomOrderNumbers {
	return &RandomOrderNumbers{rnd: rand.New(rand.NewSource(seed))}
}

func (g *RandomOrderNumbers) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Int63n(1_000_000_000)
}

// SequenceOrderNumbers replays a fixed list, repeating the last value.
type SequenceOrderNumbers struct {
	mu   sync.Mutex
	Nums []int64
}

func (s *SequenceOrderNumbers) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Nums) == 0 {
		return 0
	}
	n := s.Nums[0]
	if len(s.Nums) > 1 {
		s.Nums = s.Nums[1:]
	}
	return n
}
