package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
)

const coverUserAgent = "tunegrab"

// CoverClient implements [CoverFetcher] over plain HTTP.
type CoverClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewCoverClient creates a cover client. A non-positive timeout disables the client-level limit,
// leaving the caller's context as the only bound.
func NewCoverClient(timeout time.Duration) *CoverClient {
	c := &http.Client{}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &CoverClient{httpClient: c, userAgent: coverUserAgent}
}

// Fetch performs a GET and returns the body when the status is 200.
//
// Any other status yields nil bytes and a nil error; transport failures are returned.
func (c *CoverClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	return data, nil
}

// Normalize scales the image to fit within maxSize x maxSize and re-encodes it as JPEG.
//
// Images already within bounds are re-encoded at their own size. Undecodable input is returned
// unchanged with its sniffed MIME type so callers can still embed it.
func Normalize(data []byte, maxSize int) ([]byte, string) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, http.DetectContentType(data)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width >= height {
			height = max(1, height*maxSize/width)
			width = maxSize
		} else {
			width = max(1, width*maxSize/height)
			height = maxSize
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return data, http.DetectContentType(data)
	}
	return buf.Bytes(), "image/jpeg"
}
