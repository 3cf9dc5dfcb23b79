// Package ocr talks to the recognition sidecar: uploading challenge images,
// squeezing the sidecar's assorted response shapes into one text value, and
// bounding how many recognitions run at once.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// defaultTimeoutSeconds is the default deadline for sidecar requests.
	defaultTimeoutSeconds = 30

	// recognizeEndpoint is the path appended to ProxyURL.
	recognizeEndpoint = "/recognize"
)

// Config locates the recognition sidecar. APIKey comes from the
// environment only and never lands in the config file.
type Config struct {
	ProxyURL       string
	APIKey         string
	TimeoutSeconds int
}

// Client is the HTTP client for the sidecar.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Recognize uploads the image at imagePath and returns the recognized
// text, already normalized from whatever shape the sidecar answered with.
func (c *Client) Recognize(ctx context.Context, imagePath string) (string, error) {
	if c.cfg.ProxyURL == "" {
		return "", fmt.Errorf("ocr: proxy not configured")
	}
	if imagePath == "" {
		return "", fmt.Errorf("ocr: no image to recognize")
	}

	timeoutSec := c.cfg.TimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = defaultTimeoutSeconds
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("ocr: open image %q: %w", imagePath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("ocr: create form file field: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", fmt.Errorf("ocr: write image bytes to form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ocr: close multipart writer: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	url := c.cfg.ProxyURL + recognizeEndpoint
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("ocr: build request to %q: %w", url, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	slog.Debug("calling OCR sidecar", "url", url, "file", filepath.Base(imagePath))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr: request to %q failed: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB cap
	if err != nil {
		return "", fmt.Errorf("ocr: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr: upstream returned %d: %s", resp.StatusCode, string(respBody))
	}

	text, err := Normalize(respBody)
	if err != nil {
		return "", err
	}
	slog.Debug("OCR text received", "length", len(text))
	return text, nil
}
