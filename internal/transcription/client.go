// Package transcription wraps the hosted speech-to-text service. Audio is
// uploaded as multipart form data; the service returns the transcript text,
// the detected language, and the audio duration.
package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/config"
)

var (
	ErrNoAudio           = errors.New("no audio file provided")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrUploadTooLarge    = errors.New("audio upload exceeds the size limit")
	// ErrUnavailable marks transport and 5xx failures. Handlers map it to 503.
	ErrUnavailable = errors.New("transcription service unavailable")
)

// supportedExtensions mirrors the formats the speech-to-text service accepts.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".webm": true,
}

// Result is the service's transcription payload.
type Result struct {
	Transcript string  `json:"transcript"`
	Language   string  `json:"language"`
	Duration   float64 `json:"duration"`
}

// serviceError is the error body the service returns on non-2xx responses.
type serviceError struct {
	Detail string `json:"detail"`
}

type Client struct {
	cfg        config.TranscriptionConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg config.TranscriptionConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// SupportedFormat reports whether the filename carries an accepted audio extension.
func SupportedFormat(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Transcribe uploads audio and returns the transcript. The extension check
// happens client-side so unsupported uploads fail before the network hop.
func (c *Client) Transcribe(ctx context.Context, filename string, size int64, audio io.Reader) (*Result, error) {
	if filename == "" || audio == nil {
		return nil, ErrNoAudio
	}
	if !SupportedFormat(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if c.cfg.MaxUploadBytes > 0 && size > c.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, size)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, audio); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/transcribe", pr)
	if err != nil {
		return nil, fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var svcErr serviceError
		detail := ""
		if json.Unmarshal(body, &svcErr) == nil {
			detail = svcErr.Detail
		}
		c.log.Error("transcription service error",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(detail, "Unsupported file format") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detail)
		}
		return nil, fmt.Errorf("transcription failed with status %d: %s", resp.StatusCode, detail)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding transcription response: %w", err)
	}

	return &result, nil
}

// Health pings the service's health endpoint. Used by the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
