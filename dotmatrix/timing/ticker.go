package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent frame timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for
// most cases.
type TickerLimiter struct {
	speed  float64
	ticker *time.Ticker
	ch     <-chan time.Time
}

func NewTickerLimiter(speed float64) *TickerLimiter {
	ticker := time.NewTicker(FrameDuration(speed))
	return &TickerLimiter{
		speed:  speed,
		ticker: ticker,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration(t.speed))
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
