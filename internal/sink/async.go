package sink

import (
	"sync"

	"github.com/user/picscan/internal/monitoring"
	"go.uber.org/zap"
)

// Async hands every notification to its own goroutine, so Notify returns
// immediately and a slow or failing sink never stalls the caller.
type Async struct {
	next    Sink
	logger  *zap.Logger
	metrics *monitoring.Metrics
	wg      sync.WaitGroup
}

func NewAsync(next Sink, logger *zap.Logger, m *monitoring.Metrics) *Async {
	return &Async{next: next, logger: logger, metrics: m}
}

func (a *Async) Notify(ref string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if deliver(a.next, ref, a.logger) {
			a.metrics.IncNotifications("delivered")
		} else {
			a.metrics.IncNotifications("panicked")
		}
	}()
}

// Wait blocks until every notification issued so far has returned. Callers
// must stop calling Notify before waiting.
func (a *Async) Wait() {
	a.wg.Wait()
}
