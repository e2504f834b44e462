package observe

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event captures lightweight execution telemetry for one named operation:
// a refresh cycle, an edit submission or an HTTP call.
type Event struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives operation events.
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) Observe(context.Context, Event) {}

type zapObserver struct {
	logger *zap.Logger
}

// NewZapObserver writes events to logger. A nil logger yields a NoopObserver.
func NewZapObserver(logger *zap.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &zapObserver{logger: logger}
}

func (o *zapObserver) Observe(_ context.Context, event Event) {
	fields := make([]zap.Field, 0, 3+len(event.Fields))
	fields = append(fields,
		zap.String("event", event.Name),
		zap.Int64("duration_ms", event.Duration.Milliseconds()),
		zap.Bool("success", event.Success),
	)
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
		o.logger.Error(event.Name, fields...)
		return
	}
	o.logger.Info(event.Name, fields...)
}

// OrNoop returns the first non-nil observer, or a NoopObserver.
func OrNoop(observers ...Observer) Observer {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopObserver{}
}

// NewLogger builds a console-encoded zap logger writing to w at the given
// level ("debug", "info", "warn", "error"). A nil writer yields zap.NewNop.
func NewLogger(level string, w io.Writer) (*zap.Logger, error) {
	if w == nil {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core), nil
}
