package client

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RemoveBackground(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/remove-bg", r.URL.Path)
		file, _, err := r.FormFile("photo")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "raw", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image":"data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("cut")) + `"}`))
	}))
	defer server.Close()

	got, err := New(server.URL+"/", nil).RemoveBackground(context.Background(), []byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "cut", string(got))
}

func TestClient_RemoveBackground_ServerError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"json", http.StatusInternalServerError, `{"error":"not configured","code":"MISSING_CREDENTIAL"}`, "MISSING_CREDENTIAL", "not configured"},
		{"plain text", http.StatusBadGateway, "Failed to process image\n", "", "Failed to process image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, nil).RemoveBackground(context.Background(), []byte("raw"))
			var serverErr *ServerError
			require.True(t, errors.As(err, &serverErr))
			assert.Equal(t, tt.status, serverErr.StatusCode)
			assert.Equal(t, tt.wantCode, serverErr.Code)
			assert.Equal(t, tt.wantMsg, serverErr.Message)
		})
	}
}

func TestDecodeDataURL(t *testing.T) {
	t.Parallel()

	got, err := DecodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	for _, bad := range []string{"", "image/png;base64,AAAA", "data:image/png,AAAA", "data:image/png;base64,!!!"} {
		_, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}
