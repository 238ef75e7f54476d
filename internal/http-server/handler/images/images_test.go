package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"image-pipeline/internal/config"
	"image-pipeline/internal/domain"
	"image-pipeline/internal/fetch"
	repoImage "image-pipeline/internal/repository/image"
	"image-pipeline/internal/resolver"
	"image-pipeline/internal/usecase/thumbnail"
	"image-pipeline/internal/usecase/upload"

	"github.com/wb-go/wbf/zlog"
)

type fakeThumbnails struct {
	result *thumbnail.Result
	err    error
}

func (f *fakeThumbnails) Render(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeUploads struct {
	result *domain.UploadResult
	err    error
}

func (f *fakeUploads) SaveImage(ctx context.Context, data []byte, filename, contentType string) (*domain.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeUploads) SaveDataURI(ctx context.Context, dataURI, filename string) (*domain.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestHandler(thumbs *fakeThumbnails, uploads *fakeUploads) *ImagesHandler {
	zlog.Init()
	res := resolver.New(config.StorageConfig{
		Bucket:        "images",
		PublicBaseURL: "https://pub.example.com",
	})
	return NewImagesHandler(thumbs, uploads, res, &zlog.Logger)
}

func TestThumbnailSuccess(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{
		result: &thumbnail.Result{Key: "thumbnails/abc-400x300.jpg", Bytes: []byte("jpeg-bytes")},
	}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/images/thumbnail?url=https%3A%2F%2Fsource.example%2Fa.jpg&w=400&h=300", nil)
	rec := httptest.NewRecorder()
	h.Thumbnail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != domain.CacheControlImmutable {
		t.Fatalf("cache control %q", cc)
	}
	if cors := rec.Header().Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Fatalf("cors header %q", cors)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestThumbnailKeyAlias(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{
		result: &thumbnail.Result{Bytes: []byte("x")},
	}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/images/thumbnail?key=uploads%2Fa.jpg&w=100&h=100", nil)
	rec := httptest.NewRecorder()
	h.Thumbnail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestThumbnailRedirectsToCDN(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{
		result: &thumbnail.Result{Key: "thumbnails/x.jpg", RedirectURL: "https://cdn.example.com/thumbnails/x.jpg"},
	}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/images/thumbnail?url=a.jpg&w=10&h=10", nil)
	rec := httptest.NewRecorder()
	h.Thumbnail(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://cdn.example.com/thumbnails/x.jpg" {
		t.Fatalf("location %q", loc)
	}
}

func TestThumbnailErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"host not allowed", fmt.Errorf("%w: evil", thumbnail.ErrHostNotAllowed), http.StatusForbidden},
		{"invalid source", fmt.Errorf("%w: bad", thumbnail.ErrInvalidSource), http.StatusBadRequest},
		{"source fetch", fmt.Errorf("%w: 404", fetch.ErrSourceFetch), http.StatusBadGateway},
		{"missing stored key", fmt.Errorf("%w: uploads/x", repoImage.ErrObjectNotFound), http.StatusBadGateway},
		{"storage write", fmt.Errorf("%w: put", repoImage.ErrStorageWrite), http.StatusBadGateway},
		{"storage read", fmt.Errorf("%w: get", repoImage.ErrStorageRead), http.StatusBadGateway},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeThumbnails{err: tt.err}, &fakeUploads{})

			req := httptest.NewRequest(http.MethodGet, "/api/images/thumbnail?url=a.jpg&w=10&h=10", nil)
			rec := httptest.NewRecorder()
			h.Thumbnail(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("error body missing error field")
			}
		})
	}
}

func TestThumbnailMissingParameters(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{}, &fakeUploads{})

	urls := []string{
		"/api/images/thumbnail",
		"/api/images/thumbnail?url=a.jpg",
		"/api/images/thumbnail?url=a.jpg&w=100",
		"/api/images/thumbnail?url=a.jpg&w=0&h=100",
		"/api/images/thumbnail?url=a.jpg&w=100&h=9999",
	}
	for _, u := range urls {
		req := httptest.NewRequest(http.MethodGet, u, nil)
		rec := httptest.NewRecorder()
		h.Thumbnail(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", u, rec.Code)
		}
	}
}

func TestUploadDataURI(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{}, &fakeUploads{
		result: &domain.UploadResult{
			Key:    "uploads/1699999999-photo.jpg",
			Width:  1200,
			Height: 800,
			Renditions: []domain.Rendition{
				{Key: "uploads/1699999999-photo.jpg/thumb-400.jpg", Name: "thumb", Format: domain.FormatJPEG, Width: 400, Height: 267},
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"dataUrl": "data:image/png;base64,AAAA", "filename": "photo.jpg"})
	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Key        string `json:"key"`
		URL        string `json:"url"`
		Renditions []struct {
			Key string `json:"key"`
			URL string `json:"url"`
		} `json:"renditions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Key != "uploads/1699999999-photo.jpg" {
		t.Fatalf("key %q", resp.Key)
	}
	if !strings.HasPrefix(resp.URL, "https://pub.example.com/") {
		t.Fatalf("url %q not publicly resolved", resp.URL)
	}
	if len(resp.Renditions) != 1 || !strings.HasPrefix(resp.Renditions[0].URL, "https://pub.example.com/") {
		t.Fatalf("renditions %+v", resp.Renditions)
	}
}

func TestUploadInvalidBody(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid data uri", fmt.Errorf("%w: junk", upload.ErrInvalidDataURI), http.StatusBadRequest},
		{"storage failure", fmt.Errorf("%w: put", repoImage.ErrStorageWrite), http.StatusBadGateway},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeThumbnails{}, &fakeUploads{err: tt.err})

			body, _ := json.Marshal(map[string]string{"dataUrl": "data:image/png;base64,AAAA"})
			req := httptest.NewRequest(http.MethodPost, "/api/images/upload", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.Upload(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	h := newTestHandler(&fakeThumbnails{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/images/resolve?key=uploads%2Fphoto.jpg", nil)
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Src != "https://pub.example.com/uploads/photo.jpg" {
		t.Fatalf("src %q", resp.Src)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/images/resolve?key=uploads%2Fphoto.jpg&usage=list", nil)
	rec = httptest.NewRecorder()
	h.Resolve(rec, req)

	var withUsage struct {
		Src    string `json:"src"`
		SrcSet string `json:"srcset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &withUsage); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(withUsage.SrcSet, "400w") {
		t.Fatalf("srcset %q", withUsage.SrcSet)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/images/resolve", nil)
	rec = httptest.NewRecorder()
	h.Resolve(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing key should 400, got %d", rec.Code)
	}
}
