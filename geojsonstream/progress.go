package geojsonstream

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
)

const plainBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n"

type progressReader struct {
	io.Reader
	bar *pb.ProgressBar
}

// newProgressReader counts bytes read from r on a progress bar. A zero size
// means the total is unknown.
func newProgressReader(r io.Reader, size int64, name string) *progressReader {
	bar := pb.New64(size)
	bar.SetWriter(os.Stderr)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(plainBarTemplate)
	}
	bar.Start()

	return &progressReader{
		Reader: bar.NewProxyReader(r),
		bar:    bar,
	}
}

func (r *progressReader) Close() error {
	r.bar.Finish()
	return nil
}
