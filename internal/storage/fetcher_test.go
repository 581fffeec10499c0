package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/cv.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		case "/files/big.pdf":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f, err := NewHTTPFetcher(time.Second, 32)
	require.NoError(t, err)

	doc, err := f.Fetch(context.Background(), server.URL+"/files/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.MediaType)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Content)

	_, err = f.Fetch(context.Background(), server.URL+"/files/missing.pdf")
	assert.ErrorContains(t, err, "404")

	_, err = f.Fetch(context.Background(), server.URL+"/files/big.pdf")
	assert.Error(t, err, "超过大小上限")

	_, err = f.Fetch(context.Background(), "ftp://example.com/cv.pdf")
	assert.Error(t, err)
}

func TestMinIOURLs(t *testing.T) {
	m := newMinIOWithClient(nil, &config.MinIOConfig{Endpoint: "localhost:9000", BucketName: "resumes"})

	assert.Equal(t, "resume/r-1/original.pdf", ObjectKey("r-1", "My CV.PDF"))
	assert.Equal(t, "resume/r-1/original.bin", ObjectKey("r-1", "noext"))

	fileURL := m.ObjectURL(ObjectKey("r-1", "cv.docx"))
	assert.Equal(t, "http://localhost:9000/resumes/resume/r-1/original.docx", fileURL)
	assert.True(t, m.Owns(fileURL))
	assert.False(t, m.Owns("http://elsewhere/resumes/resume/r-1/original.docx"))

	key, err := m.objectKeyFromURL(fileURL)
	require.NoError(t, err)
	assert.Equal(t, "resume/r-1/original.docx", key)

	public := newMinIOWithClient(nil, &config.MinIOConfig{Endpoint: "minio:9000", PublicBaseURL: "https://cdn.example.com/", BucketName: "cv"})
	assert.Equal(t, "https://cdn.example.com/cv/a.pdf", public.ObjectURL("a.pdf"))
}

func TestRoutingFetcher_FallsBackToHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	httpFetcher, err := NewHTTPFetcher(time.Second, 0)
	require.NoError(t, err)
	m := newMinIOWithClient(nil, &config.MinIOConfig{Endpoint: "localhost:9000", BucketName: "resumes"})

	doc, err := NewRoutingFetcher(m, httpFetcher).Fetch(context.Background(), server.URL+"/x/resume.docx")
	require.NoError(t, err)
	assert.Equal(t, "resume.docx", doc.Filename)

	_, err = NewRoutingFetcher(nil, nil).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
