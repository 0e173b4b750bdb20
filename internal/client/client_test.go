package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seantiz/lchgate/internal/model"
	"github.com/seantiz/lchgate/internal/payload"
)

// fakeGateway answers the gateway routes from canned state.
type fakeGateway struct {
	mu       sync.Mutex
	messages []string
	polls    atomic.Int32
	result   *string
	pollCode int
}

func (f *fakeGateway) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+model.RouteCall, func(w http.ResponseWriter, r *http.Request) {
		var req model.CallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode call: %v", err)
		}
		f.mu.Lock()
		f.messages = append(f.messages, req.Message)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, model.Response{Status: model.StatusOK})
	})
	mux.HandleFunc("GET "+model.RouteGetResult, func(w http.ResponseWriter, _ *http.Request) {
		f.polls.Add(1)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.pollCode != 0 {
			writeJSON(w, f.pollCode, model.Response{Status: model.StatusError, Error: "broken"})
			return
		}
		if f.result == nil {
			writeJSON(w, http.StatusUnauthorized, model.Response{Status: model.StatusNoResult})
			return
		}
		res := *f.result
		f.result = nil
		writeJSON(w, http.StatusOK, model.Response{Status: model.StatusOK, Result: &res})
	})
	mux.HandleFunc("GET "+model.RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return mux
}

func (f *fakeGateway) setResult(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = &s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeGateway, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", opts...), ts
}

func TestSubmitWrapsPayload(t *testing.T) {
	f := &fakeGateway{}
	c, ts := newTestClient(t, f, WithReportTimeout(300*time.Millisecond))

	if err := c.Submit(context.Background(), "print('hi')"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(f.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(f.messages))
	}
	msg := f.messages[0]
	prefix := payload.EntryPoint + `("`
	if !strings.HasPrefix(msg, prefix) {
		t.Fatalf("message = %q, want a wrapped payload", msg)
	}

	block, err := payload.Decode(strings.TrimSuffix(strings.TrimPrefix(msg, prefix), `")`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if block.Code != "print('hi')" {
		t.Errorf("Code = %q", block.Code)
	}
	if block.ReportURL != ts.URL+model.RouteSetResult {
		t.Errorf("ReportURL = %q, want %q", block.ReportURL, ts.URL+model.RouteSetResult)
	}
	if block.TimeoutMS != 300 {
		t.Errorf("TimeoutMS = %d, want 300", block.TimeoutMS)
	}
}

func TestCallSendsRawMessage(t *testing.T) {
	f := &fakeGateway{}
	c, _ := newTestClient(t, f)

	if err := c.Call(context.Background(), `print("raw")`); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(f.messages) != 1 || f.messages[0] != `print("raw")` {
		t.Errorf("messages = %q", f.messages)
	}
}

func TestCallTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := New(url).Call(context.Background(), "x")
	if err == nil {
		t.Fatal("Call to a closed server succeeded")
	}
}

func TestCallStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, model.Response{Status: model.StatusError, Error: "bad"})
	}))
	defer ts.Close()

	err := New(ts.URL).Call(context.Background(), "x")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusBadRequest || statusErr.Route != model.RouteCall {
		t.Errorf("StatusError = %+v", statusErr)
	}
}

func TestAwaitResultImmediate(t *testing.T) {
	f := &fakeGateway{}
	f.setResult("pong\n")
	c, _ := newTestClient(t, f)

	got, err := c.AwaitResult(context.Background())
	if err != nil {
		t.Fatalf("AwaitResult: %v", err)
	}
	if got != "pong\n" {
		t.Errorf("result = %q, want %q", got, "pong\n")
	}
	if n := f.polls.Load(); n != 1 {
		t.Errorf("polls = %d, want 1", n)
	}
}

func TestAwaitResultRetriesUntilReady(t *testing.T) {
	f := &fakeGateway{}
	c, _ := newTestClient(t, f, WithPollInterval(20*time.Millisecond), WithPollDeadline(5*time.Second))

	time.AfterFunc(100*time.Millisecond, func() { f.setResult("late") })

	got, err := c.AwaitResult(context.Background())
	if err != nil {
		t.Fatalf("AwaitResult: %v", err)
	}
	if got != "late" {
		t.Errorf("result = %q, want late", got)
	}
	if n := f.polls.Load(); n < 2 {
		t.Errorf("polls = %d, want retries before the result", n)
	}
}

func TestAwaitResultEmptyResult(t *testing.T) {
	f := &fakeGateway{}
	f.setResult("")
	c, _ := newTestClient(t, f)

	got, err := c.AwaitResult(context.Background())
	if err != nil || got != "" {
		t.Errorf("AwaitResult = %q, %v; want empty result", got, err)
	}
}

func TestAwaitResultDeadline(t *testing.T) {
	f := &fakeGateway{}
	deadline := 300 * time.Millisecond
	c, _ := newTestClient(t, f, WithPollDeadline(deadline), WithPollInterval(70*time.Millisecond))

	start := time.Now()
	_, err := c.AwaitResult(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if elapsed < deadline {
		t.Errorf("gave up after %v, before the %v deadline", elapsed, deadline)
	}

	polls := f.polls.Load()
	if polls < 2 {
		t.Errorf("polls = %d, want several", polls)
	}
	time.Sleep(200 * time.Millisecond)
	if after := f.polls.Load(); after != polls {
		t.Errorf("polls grew from %d to %d after timeout", polls, after)
	}
}

func TestAwaitResultAbortsOnUnexpectedStatus(t *testing.T) {
	f := &fakeGateway{pollCode: http.StatusInternalServerError}
	c, _ := newTestClient(t, f, WithPollInterval(10*time.Millisecond))

	_, err := c.AwaitResult(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("error = %v, want 500 StatusError", err)
	}
	if n := f.polls.Load(); n != 1 {
		t.Errorf("polls = %d, want 1", n)
	}
}

func TestAwaitResultParentCancel(t *testing.T) {
	f := &fakeGateway{}
	c, _ := newTestClient(t, f, WithPollDeadline(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.AwaitResult(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRun(t *testing.T) {
	f := &fakeGateway{}
	c, _ := newTestClient(t, f)

	time.AfterFunc(50*time.Millisecond, func() { f.setResult("done") })

	got, err := c.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "done" {
		t.Errorf("result = %q, want done", got)
	}
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, &fakeGateway{})
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	if err := New(ts.URL).Health(context.Background()); err == nil {
		t.Error("Health against a 404 server: expected error")
	}
}
