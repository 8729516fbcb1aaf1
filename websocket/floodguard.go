package websocket

import (
	"context"

	"golang.org/x/time/rate"
)

// FloodGuard rate-limits how often a connection's control-frame spill
// handling is allowed to emit an outbound reply (PONG for PING, the
// CLOSE echo), protecting the OutboundWriter collaborator from a peer
// that interleaves control frames faster than the transport can drain
// them.
type FloodGuard struct {
	limiter *rate.Limiter
}

// NewFloodGuard builds a guard allowing burst control replies up to
// burst, refilling at ratePerSecond tokens/second.
func NewFloodGuard(ratePerSecond float64, burst int) *FloodGuard {
	return &FloodGuard{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Allow reports whether a control-frame reply may be sent right now. A
// caller that gets false should drop the reply rather than block: the
// frame state machine must never suspend mid-byte.
func (g *FloodGuard) Allow() bool {
	if g == nil {
		return true
	}
	return g.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled. It exists
// for embedders that run control-frame replies from a separate worker
// goroutine, outside the frame SM's own synchronous call path — it must
// never be called from within FeedFrameByte itself, since the outbound
// writer must not re-enter the pump.
func (g *FloodGuard) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
