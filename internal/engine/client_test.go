package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	var got GenerateRequest
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate-code", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]string{"generated_code": "print('ok')"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", 5*time.Second)
	code, err := c.GenerateCode(context.Background(), "build an api", "python", "advanced")
	require.NoError(t, err)

	assert.Equal(t, "print('ok')", code)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, GenerateRequest{
		TaskDescription: "build an api",
		Language:        "python",
		ComplexityLevel: "advanced",
	}, got)
}

func TestGenerateCodeOmitsEmptyAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		json.NewEncoder(w).Encode(map[string]string{"generated_code": ""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.GenerateCode(context.Background(), "task", "python", "advanced")
	require.NoError(t, err)
}

func TestGenerateCodeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.GenerateCode(context.Background(), "task", "python", "advanced")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "status 503")
}

func TestGenerateCodeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.GenerateCode(context.Background(), "task", "python", "advanced")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateCodeBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.GenerateCode(context.Background(), "task", "python", "advanced")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	require.NoError(t, c.Health(context.Background()))

	healthy = false
	assert.ErrorIs(t, c.Health(context.Background()), ErrUnavailable)
}
