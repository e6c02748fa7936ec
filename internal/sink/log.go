package sink

import "go.uber.org/zap"

// Log writes one info line per discovered image.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ref string) {
	l.logger.Info("image discovered", zap.String("image", ref))
}
