// Package debugserver exposes prometheus metrics and pprof profiles of a
// running labeling job.
package debugserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/valyala/fasthttp/pprofhandler"
)

func newRouter() *router.Router {
	r := router.New()
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	return r
}

// Run serves until ctx is canceled.
func Run(ctx context.Context, address string) error {
	log := slog.With("component", "debugserver")

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	server := &fasthttp.Server{
		ReadTimeout: time.Second,
		Handler:     newRouter().Handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "debug server listening", "address", address)
		errCh <- server.ListenAndServe(address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}
