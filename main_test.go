package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestServiceStop_ClosesStoreAfterDrain(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var served atomic.Bool

	s := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
			served.Store(true)
			io.WriteString(w, "ok")
		}),
		ReadHeaderTimeout: time.Second,
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(ln) }()

	var svc service
	svc.server.Store(s)
	var closes atomic.Int32
	var closedWhileServing atomic.Bool
	closeStore := func() error {
		closes.Add(1)
		closedWhileServing.Store(!served.Load())
		return nil
	}
	svc.closeStore.Store(&closeStore)

	respErr := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			_, err = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		respErr <- err
	}()
	<-entered

	stopErr := make(chan error, 1)
	go func() { stopErr <- svc.stop(context.Background()) }()

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Serve() error = %v, want http.ErrServerClosed", err)
	}
	if closes.Load() != 0 {
		t.Fatal("store closed while a request was in flight")
	}
	close(release)

	if err := <-stopErr; err != nil {
		t.Errorf("stop() error: %v", err)
	}
	if err := <-respErr; err != nil {
		t.Errorf("in-flight request failed: %v", err)
	}
	if closedWhileServing.Load() {
		t.Error("store closed before the in-flight request finished")
	}

	if err := svc.stop(context.Background()); err != nil {
		t.Errorf("second stop() error: %v", err)
	}
	if got := closes.Load(); got != 1 {
		t.Errorf("store closed %d times, want 1", got)
	}
}

func TestServiceStop_ReportsCloseError(t *testing.T) {
	var svc service
	closeStore := func() error { return io.ErrClosedPipe }
	svc.closeStore.Store(&closeStore)

	if err := svc.stop(context.Background()); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("stop() error = %v, want io.ErrClosedPipe", err)
	}
}
