package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/thejerf/slogassert"

	"github.com/royalcat/geolabels/labeler"
	"github.com/royalcat/geolabels/pipeline"
)

func newPipeline(t *testing.T, threads int) (*pipeline.Pipeline, *slogassert.Handler) {
	t.Helper()

	handler := slogassert.New(t, slog.LevelWarn, nil)
	log := slog.New(handler)

	l, err := labeler.New(labeler.ConfigDefault(), labeler.WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	p, err := pipeline.New(l, threads, log)
	if err != nil {
		t.Fatal(err)
	}
	return p, handler
}

func squareFeature(id int, x float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}})
	f.ID = id
	return f
}

func collection(t *testing.T, features ...*geojson.Feature) []byte {
	t.Helper()

	fc := geojson.NewFeatureCollection()
	fc.Features = features
	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestRunKeepsOrder(t *testing.T) {
	p, handler := newPipeline(t, 8)

	features := make([]*geojson.Feature, 200)
	for i := range features {
		features[i] = squareFeature(i, float64(i*2))
	}

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), bytes.NewReader(collection(t, features...)), &out)
	if err != nil {
		t.Fatal(err)
	}
	handler.AssertEmpty()

	if stats.Features != 200 || stats.Points != 200 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 200 {
		t.Fatalf("expected 200 points, got %d", len(fc.Features))
	}
	for i, f := range fc.Features {
		if f.ID != float64(i) {
			t.Fatalf("point %d has id %v", i, f.ID)
		}
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			t.Fatalf("point %d: expected Point, got %T", i, f.Geometry)
		}
		if pt[0] < float64(i*2) || pt[0] > float64(i*2+1) {
			t.Fatalf("point %d outside its square: %v", i, pt)
		}
	}
}

func TestRunSkipsUnsupported(t *testing.T) {
	p, handler := newPipeline(t, 2)

	line := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	empty := &geojson.Feature{Type: "Feature", Properties: geojson.Properties{}}

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), bytes.NewReader(collection(t, squareFeature(1, 0), line, empty, squareFeature(2, 5))), &out)
	if err != nil {
		t.Fatal(err)
	}

	handler.AssertMessage("skipping feature")
	handler.AssertMessage("skipping feature")
	handler.AssertEmpty()

	if stats.Features != 4 || stats.Skipped != 2 || stats.Points != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRunEmpty(t *testing.T) {
	p, _ := newPipeline(t, 1)

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(`{"type":"FeatureCollection","features":[]}`), &out)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Features != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 0 {
		t.Fatalf("expected no features, got %d", len(fc.Features))
	}
}

func TestRunSyntaxErrorClosesOutput(t *testing.T) {
	p, _ := newPipeline(t, 4)

	var parts []string
	for _, f := range []*geojson.Feature{squareFeature(1, 0), squareFeature(2, 5)} {
		raw, err := f.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		parts = append(parts, string(raw))
	}
	data := `{"type":"FeatureCollection","features":[` + strings.Join(parts, ",") + `,{"type":"Feature","geometry":`

	var out bytes.Buffer
	_, err := p.Run(context.Background(), strings.NewReader(data), &out)
	if err == nil {
		t.Fatal("expected error")
	}

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	if err != nil {
		t.Fatalf("output is not a valid collection: %v\n%s", err, out.String())
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 points before the error, got %d", len(fc.Features))
	}
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestRunWriteError(t *testing.T) {
	p, _ := newPipeline(t, 4)

	features := make([]*geojson.Feature, 2000)
	for i := range features {
		features[i] = squareFeature(i, float64(i*2))
	}

	errDiskFull := errors.New("disk full")
	_, err := p.Run(context.Background(), bytes.NewReader(collection(t, features...)), failingWriter{err: errDiskFull})
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	p, _ := newPipeline(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := p.Run(ctx, bytes.NewReader(collection(t, squareFeature(1, 0))), &out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func BenchmarkRun(b *testing.B) {
	l, err := labeler.New(labeler.ConfigDefault())
	if err != nil {
		b.Fatal(err)
	}
	p, err := pipeline.New(l, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		b.Fatal(err)
	}

	fc := geojson.NewFeatureCollection()
	for i := 0; i < 1000; i++ {
		fc.Append(squareFeature(i, float64(i*2)))
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out bytes.Buffer
		if _, err := p.Run(context.Background(), bytes.NewReader(data), &out); err != nil {
			b.Fatal(err)
		}
	}
}
