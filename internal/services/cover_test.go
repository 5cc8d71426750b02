package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCoverClient(t *testing.T) {
	t.Run("returns body on 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != coverUserAgent {
				t.Errorf("expected user agent %q, got %q", coverUserAgent, r.Header.Get("User-Agent"))
			}
			w.Write([]byte("image-bytes"))
		}))
		defer server.Close()

		data, err := NewCoverClient(5*time.Second).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("non-200 is no cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		data, err := NewCoverClient(0).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if data != nil {
			t.Errorf("expected nil data, got %d bytes", len(data))
		}
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		if _, err := NewCoverClient(time.Second).Fetch(context.Background(), url); err == nil {
			t.Error("expected error for closed server")
		}
	})

	t.Run("Interface", func(t *testing.T) {
		var _ CoverFetcher = &CoverClient{}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("downscales large images keeping aspect ratio", func(t *testing.T) {
		out, mime := Normalize(encodePNG(t, 200, 100), 50)
		if mime != "image/jpeg" {
			t.Fatalf("expected image/jpeg, got %s", mime)
		}
		img, err := jpeg.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output is not jpeg: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
			t.Errorf("expected 50x25, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("keeps small images at their size", func(t *testing.T) {
		out, _ := Normalize(encodePNG(t, 20, 30), 640)
		img, err := jpeg.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output is not jpeg: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 30 {
			t.Errorf("expected 20x30, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("passes through undecodable data", func(t *testing.T) {
		in := []byte("not an image at all")
		out, mime := Normalize(in, 640)
		if !bytes.Equal(in, out) {
			t.Error("expected input returned unchanged")
		}
		if mime == "image/jpeg" {
			t.Errorf("unexpected mime %s", mime)
		}
	})
}
