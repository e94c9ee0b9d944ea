// Package cloudinary uploads images to Cloudinary with an unsigned upload
// preset and returns the hosted secure URL.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/folioadmin/folio-admin/internal/ratelimit"
	"github.com/folioadmin/folio-admin/internal/upload"
)

const (
	// DefaultBaseURL is the Cloudinary upload API root.
	DefaultBaseURL = "https://api.cloudinary.com/v1_1"

	// maxResponseSize limits how much of a response body is read.
	maxResponseSize = 1 << 20

	defaultTimeout = 60 * time.Second
)

// ErrMissingURL is returned when Cloudinary accepts an upload but reports no secure_url.
var ErrMissingURL = errors.New("cloudinary: response has no secure_url")

// Config configures the uploader.
type Config struct {
	CloudName    string
	UploadPreset string
	Folder       string
	BaseURL      string // overrides DefaultBaseURL, used in tests
	Timeout      time.Duration
	RPS          float64
	Burst        int
}

// Uploader implements upload.Uploader against Cloudinary.
type Uploader struct {
	httpClient *http.Client
	endpoint   string
	cfg        Config
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates an Uploader.
func New(cfg Config, logger *slog.Logger) (*Uploader, error) {
	if cfg.CloudName == "" || cfg.UploadPreset == "" {
		return nil, fmt.Errorf("cloudinary: cloud name and upload preset are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}

	endpoint, err := url.JoinPath(cfg.BaseURL, url.PathEscape(cfg.CloudName), "image", "upload")
	if err != nil {
		return nil, fmt.Errorf("cloudinary: build endpoint: %w", err)
	}

	return &Uploader{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		cfg:        cfg,
		limiter:    ratelimit.New(cfg.RPS, cfg.Burst),
		logger:     logger,
	}, nil
}

// Close releases the rate limiter.
func (u *Uploader) Close() {
	u.limiter.Stop()
}

// Upload implements upload.Uploader.
func (u *Uploader) Upload(ctx context.Context, f upload.File) (upload.Result, error) {
	if err := u.limiter.Wait(ctx, u.cfg.CloudName); err != nil {
		return upload.Result{}, fmt.Errorf("cloudinary: rate limit: %w", err)
	}

	body, contentType, err := u.form(f)
	if err != nil {
		return upload.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return upload.Result{}, fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return upload.Result{}, fmt.Errorf("cloudinary: upload: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return upload.Result{}, fmt.Errorf("cloudinary: status %d: decode response: %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return upload.Result{}, fmt.Errorf("cloudinary: status %d: %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return upload.Result{}, fmt.Errorf("cloudinary: upload failed: status %d", resp.StatusCode)
	}
	if out.SecureURL == "" {
		return upload.Result{}, ErrMissingURL
	}

	u.logger.Info("uploaded image",
		"public_id", out.PublicID,
		"name", f.Name,
		"width", out.Width,
		"height", out.Height,
		"size", out.Bytes,
		"duration", time.Since(start),
	)

	return upload.Result{Reference: out.SecureURL}, nil
}

func (u *Uploader) form(f upload.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("upload_preset", u.cfg.UploadPreset); err != nil {
		return nil, "", fmt.Errorf("cloudinary: write preset: %w", err)
	}
	if u.cfg.Folder != "" {
		if err := w.WriteField("folder", u.cfg.Folder); err != nil {
			return nil, "", fmt.Errorf("cloudinary: write folder: %w", err)
		}
	}

	name := f.Name
	if name == "" {
		name = "upload"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("cloudinary: create file part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("cloudinary: write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("cloudinary: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
