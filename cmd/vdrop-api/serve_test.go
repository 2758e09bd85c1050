// README: Serve loop tests: shutdown waits for in-flight handlers.
package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdrop/internal/logger"
)

func TestServe_ReturnsOnlyAfterInFlightRequestsDrain(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handlerDone := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusNoContent)
		close(handlerDone)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, &http.Server{Handler: mux}, ln, 5*time.Second, logger.NewNop())
	}()

	respDone := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			respDone <- 0
			return
		}
		_ = resp.Body.Close()
		respDone <- resp.StatusCode
	}()

	<-entered
	cancel()

	select {
	case <-served:
		t.Fatal("serve returned while a request was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-served)
	select {
	case <-handlerDone:
	default:
		t.Fatal("serve returned before the handler finished")
	}
	assert.Equal(t, http.StatusNoContent, <-respDone)
}
