package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EntryPoint is the builtin a wrapped payload calls.
const EntryPoint = "__lch_run"

const (
	// DefaultReportTimeout bounds the outcome report when the target sets none.
	DefaultReportTimeout = 500 * time.Millisecond

	// MaxReportTimeout is the longest report timeout a payload may request.
	MaxReportTimeout = 5 * time.Second
)

var (
	// ErrMalformedEnvelope is returned when an envelope cannot be decoded.
	ErrMalformedEnvelope = errors.New("malformed payload envelope")

	// ErrNonLoopbackTarget is returned when a report target is not on a loopback host.
	ErrNonLoopbackTarget = errors.New("report target must be loopback")
)

// Target says where and how quickly the outcome is reported.
type Target struct {
	ReportURL string
	Timeout   time.Duration
}

// Block is the decoded envelope.
type Block struct {
	Code      string `json:"code"`
	ReportURL string `json:"report_url"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// Target returns the report target described by the block.
func (b Block) Target() Target {
	return Target{
		ReportURL: b.ReportURL,
		Timeout:   time.Duration(b.TimeoutMS) * time.Millisecond,
	}
}

// Wrap encodes code and target into a wrapped payload expression.
func Wrap(code string, target Target) (string, error) {
	if target.ReportURL == "" {
		return "", errors.New("wrap payload: report URL is required")
	}
	if err := checkTarget(target.ReportURL); err != nil {
		return "", fmt.Errorf("wrap payload: %w", err)
	}

	raw, err := json.Marshal(Block{
		Code:      code,
		ReportURL: target.ReportURL,
		TimeoutMS: reportTimeout(target.Timeout).Milliseconds(),
	})
	if err != nil {
		return "", fmt.Errorf("wrap payload: %w", err)
	}

	return EntryPoint + `("` + base64.StdEncoding.EncodeToString(raw) + `")`, nil
}

// Decode parses the envelope argument of a wrapped payload.
func Decode(encoded string) (Block, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Block{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var b Block
	if err := json.Unmarshal(raw, &b); err != nil {
		return Block{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if b.ReportURL == "" {
		return Block{}, fmt.Errorf("%w: missing report_url", ErrMalformedEnvelope)
	}
	return b, nil
}

// reportTimeout applies the default and the ceiling.
func reportTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultReportTimeout
	case d > MaxReportTimeout:
		return MaxReportTimeout
	default:
		return d
	}
}
