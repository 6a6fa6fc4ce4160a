package app

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// IDGenerator produces order ids and tracking numbers.
type IDGenerator interface {
	OrderID() string
	TrackingNumber() string
}

// TimeRandIDs builds ids from the clock in base36 milliseconds plus a random
// base36 suffix:
//
//	ORD-<ts>-<5 random>
//	ADY<ts><6 random>
//
// both uppercased.
type TimeRandIDs struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTimeRandIDs uses now and rng; nil values fall back to time.Now and a
// randomly seeded source.
func NewTimeRandIDs(now func() time.Time, rng *rand.Rand) *TimeRandIDs {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &TimeRandIDs{now: now, rng: rng}
}

func (g *TimeRandIDs) OrderID() string {
	return strings.ToUpper("ORD-" + g.timestamp() + "-" + g.random(5))
}

func (g *TimeRandIDs) TrackingNumber() string {
	return strings.ToUpper("ADY" + g.timestamp() + g.random(6))
}

func (g *TimeRandIDs) timestamp() string {
	return strconv.FormatInt(g.now().UnixMilli(), 36)
}

func (g *TimeRandIDs) random(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = base36Digits[g.rng.IntN(len(base36Digits))]
	}
	return string(b)
}
