package labeler

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	logger *slog.Logger
	meter  metric.Meter
}

type Option interface {
	apply(*options)
}

type loggerOption struct{ logger *slog.Logger }

func (o loggerOption) apply(opts *options) {
	opts.logger = o.logger
}

// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}

type meterOption struct{ meter metric.Meter }

func (o meterOption) apply(opts *options) {
	opts.meter = o.meter
}

// Default: the global otel meter provider
func WithMeter(meter metric.Meter) Option {
	return meterOption{meter: meter}
}
