// Package asr uploads audio to a speech-to-text endpoint and extracts
// transcription results, with exponential-backoff retries.
package asr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/config"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/jsonpath"
)

// RetryExhaustedError is returned when every upload attempt failed.
type RetryExhaustedError struct {
	Attempts     int
	MaxRetry     int
	LastResponse []byte
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("exceeded max retries (%d of %d attempts)", e.Attempts, e.MaxRetry)
}

// Segment is one timed piece of a transcription.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Client performs ASR uploads.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates an ASR client. A nil httpClient gets a transport built
// from the config.
func New(cfg config.Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg)
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// NewHTTPClient builds the upload transport: pooled connections,
// optional HTTP/2 and configurable TLS verification.
func NewHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// Transcribe uploads the audio file and returns the extracted text and
// the raw JSON response.
func (c *Client) Transcribe(ctx context.Context, filePath string) (string, []byte, error) {
	raw, err := c.upload(ctx, filePath, nil)
	if err != nil {
		return "", raw, err
	}
	return jsonpath.ExtractText(raw, c.cfg.TEXTPath), raw, nil
}

// TranscribeSegments uploads the audio file requesting timed output
// and returns the per-segment transcription. Endpoints that ignore
// response_format yield a single segment spanning the whole file.
func (c *Client) TranscribeSegments(ctx context.Context, filePath string) ([]Segment, error) {
	raw, err := c.upload(ctx, filePath, map[string]string{"response_format": "verbose_json"})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Text     string    `json:"text"`
		Duration float64   `json:"duration"`
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}
	if len(parsed.Segments) > 0 {
		return parsed.Segments, nil
	}

	text := parsed.Text
	if text == "" {
		text = jsonpath.ExtractText(raw, c.cfg.TEXTPath)
	}
	if text == "" {
		return nil, nil
	}
	return []Segment{{Start: 0, End: parsed.Duration, Text: text}}, nil
}

func (c *Client) upload(ctx context.Context, filePath string, extraFields map[string]string) ([]byte, error) {
	if c.cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("API endpoint is empty")
	}

	try := 0
	delay := c.cfg.RetryBaseDelay
	var lastResp []byte

	for {
		try++
		resp, err := c.doUpload(ctx, filePath, extraFields)
		if err == nil {
			return resp, nil
		}
		lastResp = resp
		c.logger.Warn("upload attempt failed",
			zap.Int("attempt", try),
			zap.Int("maxRetry", c.cfg.MaxRetry),
			zap.Error(err))

		if ctx.Err() != nil {
			return lastResp, ctx.Err()
		}
		if try >= c.cfg.MaxRetry {
			return lastResp, &RetryExhaustedError{
				Attempts:     try,
				MaxRetry:     c.cfg.MaxRetry,
				LastResponse: lastResp,
			}
		}
		select {
		case <-time.After(time.Duration(delay * float64(time.Second))):
		case <-ctx.Done():
			return lastResp, ctx.Err()
		}
		delay *= 2
	}
}

func (c *Client) doUpload(ctx context.Context, filePath string, extraFields map[string]string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}

	fields := map[string]string{}
	if c.cfg.Model != "" {
		fields["model"] = c.cfg.Model
	}
	if c.cfg.Language != "" {
		fields["language"] = c.cfg.Language
	}
	if c.cfg.Prompt != "" {
		fields["prompt"] = c.cfg.Prompt
	}
	for k, v := range extraFields {
		fields[k] = v
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.APIEndpoint, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("User-Agent", "voice-to-text/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	c.logger.Debug("upload request finished",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return respBody, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return respBody, nil
}
