package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/pagecache/logging"
)

var _ logging.Logger = Logger{}

// Logger adapts a *zap.Logger. A nil L falls back to zap.NewNop.
type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f logging.Fields) { z.l().Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f logging.Fields)  { z.l().Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f logging.Fields)  { z.l().Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f logging.Fields) { z.l().Error(msg, fields(f)...) }

func (z Logger) l() *zap.Logger {
	if z.L == nil {
		return zap.NewNop()
	}
	return z.L
}

func fields(f logging.Fields) []zap.Field {
	keys := logging.SortedKeys(f)
	if keys == nil {
		return nil
	}
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
