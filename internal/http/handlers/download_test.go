package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"vidforge/internal/relay"
)

func TestDownloadStreamsBody(t *testing.T) {
	env := newTestEnv(t, nil)
	env.downloader.result = &relay.Result{
		Body:          io.NopCloser(strings.NewReader("mp4-bytes")),
		ContentType:   "video/mp4",
		ContentLength: 9,
	}

	rec := env.do(t, http.MethodPost, "/api/generate/download", `{"videoUrl":"https://v/1.mp4","apiKey":"sk-user","provider":"openai"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "mp4-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "9" {
		t.Errorf("Content-Length = %q", got)
	}
	if env.downloader.lastURL != "https://v/1.mp4" || env.downloader.lastKey != "sk-user" || env.downloader.lastTag != "openai" {
		t.Errorf("fetch args = %q/%q/%q", env.downloader.lastURL, env.downloader.lastKey, env.downloader.lastTag)
	}
}

func TestDownloadRequiresVideoURL(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/generate/download", `{"apiKey":"k"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadPassesUpstreamStatusThrough(t *testing.T) {
	env := newTestEnv(t, nil)
	env.downloader.err = &relay.StatusError{StatusCode: http.StatusForbidden}

	rec := env.do(t, http.MethodPost, "/api/generate/download", `{"videoUrl":"https://v/1.mp4"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want the upstream 403", rec.Code)
	}
}
