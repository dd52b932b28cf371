package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sourcegraph/conc/stream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/royalcat/geolabels/geojsonstream"
	"github.com/royalcat/geolabels/labeler"
)

var (
	meter  = otel.Meter("github.com/royalcat/geolabels/pipeline")
	tracer = otel.Tracer("github.com/royalcat/geolabels/pipeline")
)

type Stats struct {
	Features int
	Skipped  int
	Points   int
	Elapsed  time.Duration
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("features", s.Features),
		slog.Int("skipped", s.Skipped),
		slog.Int("points", s.Points),
		slog.Duration("elapsed", s.Elapsed),
	)
}

// Pipeline labels every feature of a GeoJSON stream with a bounded number of
// workers. Output keeps input order.
type Pipeline struct {
	labeler *labeler.Labeler
	threads int
	log     *slog.Logger

	metricFeatures metric.Int64Counter
	metricSkipped  metric.Int64Counter
}

func New(l *labeler.Labeler, threads int, log *slog.Logger) (*Pipeline, error) {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = slog.Default()
	}

	metricFeatures, err := meter.Int64Counter("features_total")
	if err != nil {
		return nil, err
	}
	metricSkipped, err := meter.Int64Counter("features_skipped_total")
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		labeler: l,
		threads: threads,
		log:     log.With("component", "pipeline"),

		metricFeatures: metricFeatures,
		metricSkipped:  metricSkipped,
	}, nil
}

// Run streams features from r and writes a FeatureCollection of label
// points to w. Features without polygons are skipped with a warning. The
// output collection is terminated even when reading fails midway.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	out := geojsonstream.NewWriter(w)
	workers := stream.New().WithMaxGoroutines(p.threads)

	var features, skipped, points int

	decodeErr := geojsonstream.Decode(r, func(f *geojson.Feature) error {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		index := features
		features++
		p.metricFeatures.Add(ctx, 1)

		workers.Go(func() stream.Callback {
			labels, err := p.labeler.Label(ctx, f)

			// callbacks run one at a time in submission order
			return func() {
				if err != nil {
					if errors.Is(err, labeler.ErrUnsupportedGeometry) {
						skipped++
						p.metricSkipped.Add(ctx, 1)
						p.log.WarnContext(ctx, "skipping feature", "index", index, "id", f.ID, "reason", err.Error())
						return
					}
					cancel(fmt.Errorf("feature %d: %w", index, err))
					return
				}

				for _, label := range labels {
					if err := out.Write(label); err != nil {
						cancel(fmt.Errorf("write output: %w", err))
						return
					}
				}
				points += len(labels)

				p.log.DebugContext(ctx, "feature labeled", "index", index, "id", f.ID, "points", len(labels))
			}
		})

		return nil
	})

	workers.Wait()

	stats := Stats{
		Features: features,
		Skipped:  skipped,
		Points:   points,
		Elapsed:  time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("features", stats.Features),
		attribute.Int("skipped", stats.Skipped),
		attribute.Int("points", stats.Points),
	)

	err := decodeErr
	if cause := context.Cause(ctx); err == nil && cause != nil {
		err = cause
	}

	closeErr := out.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close output: %w", closeErr)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stats, err
	}

	return stats, nil
}
