package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeAndWait_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := ServerOptions{Host: "127.0.0.1", Port: freePort(t), ShutdownTimeout: time.Second}

	done := make(chan error, 1)
	go func() {
		done <- ServeAndWait(ctx, http.NotFoundHandler(), zap.NewNop(), opts)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeAndWait_ListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	opts := ServerOptions{Host: "127.0.0.1", Port: l.Addr().(*net.TCPAddr).Port}
	if err := ServeAndWait(context.Background(), http.NotFoundHandler(), nil, opts); err == nil {
		t.Fatal("expected error when the port is taken")
	}
}

func TestServeAndWait_NilHandler(t *testing.T) {
	if err := ServeAndWait(context.Background(), nil, nil, ServerOptions{}); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := middleware.RequestID(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chains", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status field %d, got %v", http.StatusTeapot, fields["status"])
	}
	if fields["path"] != "/chains" {
		t.Fatalf("expected path /chains, got %v", fields["path"])
	}
	if fields["request_id"] == "" {
		t.Fatal("expected request id to be logged")
	}
}
