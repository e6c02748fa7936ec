package sink

import (
	"go.uber.org/zap"
)

// Sink receives one notification per newly discovered image. It returns
// nothing and must not be relied upon to deliver.
type Sink interface {
	Notify(ref string)
}

// Func adapts a plain function to Sink.
type Func func(ref string)

func (f Func) Notify(ref string) { f(ref) }

// Multi fans a notification out to several sinks in order. A panicking
// sink is logged and does not stop the rest.
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

func (m *Multi) Notify(ref string) {
	for _, s := range m.sinks {
		deliver(s, ref, m.logger)
	}
}

// Len reports how many sinks are attached.
func (m *Multi) Len() int { return len(m.sinks) }

// deliver calls s.Notify and reports whether it returned normally.
func deliver(s Sink, ref string, logger *zap.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sink panicked", zap.String("image", ref), zap.Any("panic", r))
			ok = false
		}
	}()
	s.Notify(ref)
	return true
}
