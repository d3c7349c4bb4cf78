package attachments

import (
	"math/rand/v2"
	"sync"
	"time"
)

// ReportIDGenerator issues report ids of the form unix_millis*1000+rand,
// strictly increasing within the process.
type ReportIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
	rand func() int64
}

func NewReportIDGenerator() *ReportIDGenerator {
	return &ReportIDGenerator{
		now:  time.Now,
		rand: func() int64 { return rand.Int64N(1000) },
	}
}

func (g *ReportIDGenerator) Next() int64 {
	candidate := g.now().UnixMilli()*1000 + g.rand()

	g.mu.Lock()
	defer g.mu.Unlock()
	if candidate <= g.last {
		candidate = g.last + 1
	}
	g.last = candidate
	return candidate
}
