package analyzer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"motorapi/internal/config"
)

func TestClient_ExtractMotion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "rec.webm", header.Filename)
		assert.Equal(t, "video/webm", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fps": 20, "amplitude": [0.1, 0.9, 0.2]}`))
	}))
	defer srv.Close()

	c := New(config.AnalyzerConfig{URL: srv.URL, TimeoutSec: 5})
	assert.True(t, c.Enabled())

	raw, err := c.ExtractMotion(context.Background(), "rec.webm", "video/webm", strings.NewReader("fake video bytes"))

	assert.NoError(t, err)
	assert.JSONEq(t, `{"fps": 20, "amplitude": [0.1, 0.9, 0.2]}`, string(raw))
}

func TestClient_ExtractMotionErrors(t *testing.T) {
	t.Run("disabled without endpoint", func(t *testing.T) {
		c := New(config.AnalyzerConfig{})
		assert.False(t, c.Enabled())

		_, err := c.ExtractMotion(context.Background(), "rec.webm", "video/webm", strings.NewReader("x"))

		assert.True(t, errors.Is(err, ErrDisabled))
	})

	t.Run("non-200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`no face detected`))
		}))
		defer srv.Close()

		c := New(config.AnalyzerConfig{URL: srv.URL, TimeoutSec: 5})
		_, err := c.ExtractMotion(context.Background(), "rec.webm", "video/webm", strings.NewReader("x"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "422")
		assert.Contains(t, err.Error(), "no face detected")
	})

	t.Run("payload failing the motion schema", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"fps": -1}`))
		}))
		defer srv.Close()

		c := New(config.AnalyzerConfig{URL: srv.URL, TimeoutSec: 5})
		_, err := c.ExtractMotion(context.Background(), "rec.webm", "video/webm", strings.NewReader("x"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "validation")
	})
}
