package labeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/royalcat/geolabels/polylabel"
)

// AreaProperty is the property holding the polygon area in square meters.
const AreaProperty = "_area"

var ErrUnsupportedGeometry = errors.New("geometry has no polygons")

// Labeler turns polygon features into label point features. It holds no
// mutable state and is safe for concurrent use.
type Labeler struct {
	algorithm   Algorithm
	precision   float64
	includeArea bool
	byFeature   bool
	roundFactor int

	log *slog.Logger

	metricPoints   metric.Int64Counter
	metricFailures metric.Int64Counter
}

func New(cfg Config, opts ...Option) (*Labeler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	algorithm, _ := ParseAlgorithm(cfg.Algorithm)

	options := options{
		logger: slog.Default(),
		meter:  otel.Meter("github.com/royalcat/geolabels/labeler"),
	}
	for _, o := range opts {
		o.apply(&options)
	}

	metricPoints, err := options.meter.Int64Counter("label_points_total")
	if err != nil {
		return nil, err
	}
	metricFailures, err := options.meter.Int64Counter("label_failures_total")
	if err != nil {
		return nil, err
	}

	l := &Labeler{
		algorithm:   algorithm,
		precision:   cfg.Precision,
		includeArea: cfg.IncludeArea,
		byFeature:   cfg.ByFeature,
		roundFactor: -1,

		log: options.logger.With("algorithm", string(algorithm)),

		metricPoints:   metricPoints,
		metricFailures: metricFailures,
	}
	if cfg.Digits >= 0 {
		l.roundFactor = int(math.Pow10(cfg.Digits))
	}

	return l, nil
}

// LabelPoint places a label point on a single polygon with the configured
// algorithm. Coordinates are not rounded.
func (l *Labeler) LabelPoint(ctx context.Context, poly orb.Polygon) (orb.Point, error) {
	switch l.algorithm {
	case AlgorithmCentroid:
		p, ok := Centroid(poly)
		if !ok {
			return orb.Point{}, fmt.Errorf("%w: polygon has no points", polylabel.ErrInvalidGeometry)
		}
		return p, nil

	case AlgorithmCenterOfMass:
		p, ok := CenterOfMass(poly)
		if !ok {
			return orb.Point{}, fmt.Errorf("%w: polygon has no points", polylabel.ErrInvalidGeometry)
		}
		return p, nil

	default:
		res, err := polylabel.PolylabelContext(ctx, poly, l.precision)
		if err != nil {
			return orb.Point{}, err
		}
		l.log.DebugContext(ctx, "pole of inaccessibility found",
			"distance", res.Distance,
			"probes", res.Probes,
		)
		return res.Point, nil
	}
}

// Label returns one point feature per polygon of f, or a single one for the
// largest polygon when labeling by feature. Polygons that can't be labeled
// are logged and left out. Features without polygons fail with
// ErrUnsupportedGeometry.
func (l *Labeler) Label(ctx context.Context, f *geojson.Feature) ([]*geojson.Feature, error) {
	if f.Geometry == nil {
		return nil, fmt.Errorf("%w: null geometry", ErrUnsupportedGeometry)
	}

	polys := Polygons(f.Geometry)
	if len(polys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
	}

	if l.byFeature {
		polys = []orb.Polygon{Largest(polys)}
	}

	out := make([]*geojson.Feature, 0, len(polys))
	for i, poly := range polys {
		point, err := l.LabelPoint(ctx, poly)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			l.metricFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("algorithm", string(l.algorithm))))
			l.log.WarnContext(ctx, "skipping polygon",
				"feature_id", f.ID,
				"polygon", i,
				"error", err.Error(),
			)
			continue
		}

		out = append(out, l.pointFeature(f, poly, point))
	}

	l.metricPoints.Add(ctx, int64(len(out)))

	return out, nil
}

func (l *Labeler) pointFeature(src *geojson.Feature, poly orb.Polygon, point orb.Point) *geojson.Feature {
	if l.roundFactor > 0 {
		point = orb.Round(point, l.roundFactor).(orb.Point)
	}

	props := make(geojson.Properties, len(src.Properties)+1)
	for k, v := range src.Properties {
		props[k] = v
	}
	if l.includeArea {
		props[AreaProperty] = math.Round(Area(poly))
	}

	f := geojson.NewFeature(point)
	f.ID = src.ID
	f.Properties = props
	return f
}
