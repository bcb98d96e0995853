package pagecache

import "github.com/unkn0wn-root/pagecache/logging"

// Fields is a minimal structured field map for logs.
type Fields = logging.Fields

// Logger is a tiny leveled logger. See the logging/zap, logging/logrus and
// logging/slog adapters. If Logger is nil in Options, logging is disabled.
type Logger = logging.Logger

type NopLogger = logging.Nop
