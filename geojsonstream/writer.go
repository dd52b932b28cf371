package geojsonstream

import (
	"bufio"
	"io"

	"github.com/paulmach/orb/geojson"
)

const (
	collectionHeader = `{"type":"FeatureCollection","features":[`
	collectionFooter = "\n]}\n"
)

// Writer writes a FeatureCollection one feature at a time. Close must be
// called to terminate the collection.
type Writer struct {
	w       *bufio.Writer
	started bool
	count   int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(f *geojson.Feature) error {
	data, err := f.MarshalJSON()
	if err != nil {
		return err
	}

	if err := w.start(); err != nil {
		return err
	}

	sep := ",\n"
	if w.count == 0 {
		sep = "\n"
	}
	if _, err := w.w.WriteString(sep); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}

	w.count++
	return nil
}

// Count is the number of features written so far.
func (w *Writer) Count() int {
	return w.count
}

// Close terminates the collection and flushes buffered output. The
// underlying writer is not closed.
func (w *Writer) Close() error {
	if err := w.start(); err != nil {
		return err
	}
	if _, err := w.w.WriteString(collectionFooter); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	_, err := w.w.WriteString(collectionHeader)
	return err
}
