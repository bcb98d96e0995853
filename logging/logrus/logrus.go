package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/pagecache/logging"
)

var _ logging.Logger = Logger{}

// Logger adapts a *logrus.Entry. A nil E logs through logrus.StandardLogger.
type Logger struct{ E *logrus.Entry }

func (l Logger) Debug(msg string, f logging.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f logging.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f logging.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f logging.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f logging.Fields) *logrus.Entry {
	e := l.E
	if e == nil {
		e = logrus.NewEntry(logrus.StandardLogger())
	}
	if len(f) == 0 {
		return e
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			out[logrus.ErrorKey] = err
			continue
		}
		out[k] = v
	}
	return e.WithFields(out)
}
