package jobs

import (
	"fmt"

	"go.uber.org/zap"
)

// zapAdapter exposes a zap logger through Temporal's keyval logging
// interface.
type zapAdapter struct {
	log *zap.SugaredLogger
}

// NewTemporalLogger wraps a zap logger for the Temporal SDK.
func NewTemporalLogger(log *zap.Logger) *zapAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &zapAdapter{log: log.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z *zapAdapter) Debug(msg string, keyvals ...interface{}) {
	z.log.Debugw(msg, normalize(keyvals)...)
}

func (z *zapAdapter) Info(msg string, keyvals ...interface{}) {
	z.log.Infow(msg, normalize(keyvals)...)
}

func (z *zapAdapter) Warn(msg string, keyvals ...interface{}) {
	z.log.Warnw(msg, normalize(keyvals)...)
}

func (z *zapAdapter) Error(msg string, keyvals ...interface{}) {
	z.log.Errorw(msg, normalize(keyvals)...)
}

// normalize pads odd keyval lists so zap's sugared logger does not
// complain about dangling keys.
func normalize(keyvals []interface{}) []interface{} {
	if len(keyvals)%2 == 0 {
		return keyvals
	}
	return append(keyvals, fmt.Sprint("(missing)"))
}
