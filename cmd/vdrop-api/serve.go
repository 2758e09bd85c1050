// README: HTTP serve loop that returns only after in-flight requests have drained.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"vdrop/internal/logger"
)

// serve runs srv on ln until ctx is done, then shuts it down. It returns
// after Shutdown has finished, not when Serve first returns, so callers can
// release the pools handlers use.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, log logger.ILogger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", logger.Error(err))
		}
	}()

	log.Info("listening", logger.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
