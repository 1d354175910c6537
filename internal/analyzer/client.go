package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"motorapi/internal/analysis"
	"motorapi/internal/config"
)

var tracer = otel.Tracer("motorapi/internal/analyzer")

// Package analyzer talks to the keypoint extraction sidecar. The sidecar
// receives a recorded test video and returns the motion payload (per-frame
// landmarks or precomputed series) that the analysis package consumes.

// ErrDisabled is returned when no extractor endpoint is configured.
// Uploads still succeed; the session simply stays pending until keypoints arrive.
var ErrDisabled = errors.New("analyzer: no endpoint configured")

// maxMotionBytes caps the extractor response. A ten second clip at 20 FPS
// yields a few hundred kilobytes of landmarks, so this is generous.
const maxMotionBytes = 16 << 20

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the keypoint extractor.
type Client struct {
	url  string
	http *http.Client
}

// New creates a Client from config. An empty URL produces a disabled client.
func New(cfg config.AnalyzerConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if cfg.TimeoutSec <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url: cfg.URL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// Enabled reports whether an extractor endpoint is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

// ExtractMotion uploads a recording to the extractor and returns the motion
// payload it produced, validated against the motion schema.
func (c *Client) ExtractMotion(ctx context.Context, filename, contentType string, video io.Reader) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	// Logical span around the whole exchange; otelhttp adds the transport span.
	ctx, span := tracer.Start(ctx, "extract_motion", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Webcam clips are short; buffering keeps the request retryable.
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build extractor request: %w", err)
	}
	if _, err := io.Copy(part, video); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build extractor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build extractor request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("call extractor: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMotionBytes))
	if err != nil {
		return nil, fmt.Errorf("read extractor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("extractor returned %d: %s", resp.StatusCode, truncate(raw, 256))
		span.RecordError(err)
		return nil, err
	}
	if err := analysis.ValidateMotion(raw); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("extractor response: %w", err)
	}
	return raw, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
