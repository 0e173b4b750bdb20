package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/seantiz/lchgate/internal/config"
	"github.com/seantiz/lchgate/internal/model"
)

// Reporter delivers an outcome to a target. Delivery is best effort.
type Reporter interface {
	Report(target Target, result string)
}

// HTTPReporter posts outcomes to the gateway's result route in the background.
type HTTPReporter struct {
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewHTTPReporter creates a reporter. A nil client selects a fresh http.Client.
func NewHTTPReporter(client *http.Client, logger *slog.Logger) *HTTPReporter {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPReporter{client: client, logger: logger}
}

// Report sends {"result": result} to target.ReportURL once, without blocking
// the caller. Failures are logged and dropped.
func (r *HTTPReporter) Report(target Target, result string) {
	if err := checkTarget(target.ReportURL); err != nil {
		r.logger.Warn("report refused", "url", target.ReportURL, "error", err)
		return
	}

	r.wg.Go(func() {
		if err := r.post(target, result); err != nil {
			reportFailures.Inc()
			r.logger.Debug("report failed", "url", target.ReportURL, "error", err)
			return
		}
		reportsSent.Inc()
	})
}

// Wait blocks until every in-flight report has finished.
func (r *HTTPReporter) Wait() {
	r.wg.Wait()
}

func (r *HTTPReporter) post(target Target, result string) error {
	body, err := json.Marshal(model.SetResultRequest{Result: result})
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout(target.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.ReportURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post report: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// checkTarget accepts only http(s) URLs on a loopback host.
func checkTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNonLoopbackTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrNonLoopbackTarget, u.Scheme)
	}
	if err := config.CheckLoopback(net.JoinHostPort(u.Hostname(), "0")); err != nil {
		return fmt.Errorf("%w: %q", ErrNonLoopbackTarget, raw)
	}
	return nil
}
