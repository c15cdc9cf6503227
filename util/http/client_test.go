package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient()
	assert.NotNil(t, client)

	httpClient, ok := client.(*HTTPClient)
	require.True(t, ok)
	assert.NotNil(t, httpClient.client)
	assert.Equal(t, 30*time.Second, httpClient.client.Timeout)

	short, ok := NewHTTPClientWithTimeout(5 * time.Second).(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, short.client.Timeout)

	fallback, ok := NewHTTPClientWithTimeout(0).(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, fallback.client.Timeout)
}

func TestHTTPClient_DoHTTPRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requestParam *RequestParam
		setupServer  func() *httptest.Server
		wantErr      bool
		wantErrMsg   string
	}{
		{
			name: "get ok",
			requestParam: &RequestParam{
				Method: "GET",
			},
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "GET", r.Method)
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte(`{"message": "success"}`))
				}))
			},
		},
		{
			name: "post json body",
			requestParam: &RequestParam{
				Method: "POST",
				Body:   map[string]interface{}{"key": "value"},
				Header: map[string]string{
					"Content-Type": "application/json",
				},
			},
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "POST", r.Method)
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

					body, err := io.ReadAll(r.Body)
					require.NoError(t, err)

					var data map[string]interface{}
					require.NoError(t, json.Unmarshal(body, &data))
					assert.Equal(t, "value", data["key"])

					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte(`{"received": true}`))
				}))
			},
		},
		{
			name: "post reader body",
			requestParam: &RequestParam{
				Method: "POST",
				Body:   strings.NewReader(`{"reader": "body"}`),
			},
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					body, err := io.ReadAll(r.Body)
					require.NoError(t, err)
					assert.Equal(t, `{"reader": "body"}`, string(body))
					w.WriteHeader(http.StatusOK)
				}))
			},
		},
		{
			name: "server error status",
			requestParam: &RequestParam{
				Method: "GET",
			},
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error": "server error"}`))
				}))
			},
			wantErr:    true,
			wantErrMsg: "HTTP request failed with status 500",
		},
		{
			name: "timeout",
			requestParam: &RequestParam{
				Method:  "GET",
				Timeout: 100 * time.Millisecond,
			},
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					time.Sleep(200 * time.Millisecond)
					w.WriteHeader(http.StatusOK)
				}))
			},
			wantErr:    true,
			wantErrMsg: "context deadline exceeded",
		},
		{
			name:         "nil param",
			requestParam: nil,
			wantErr:      true,
			wantErrMsg:   "request param is nil",
		},
		{
			name: "invalid url",
			requestParam: &RequestParam{
				Method:     "GET",
				RequestURI: "://invalid-url",
			},
			wantErr:    true,
			wantErrMsg: "missing protocol scheme",
		},
		{
			name: "unmarshalable body",
			requestParam: &RequestParam{
				Method:     "POST",
				RequestURI: "http://127.0.0.1:1",
				Body:       make(chan int),
			},
			wantErr:    true,
			wantErrMsg: "encode body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.setupServer != nil {
				server := tt.setupServer()
				defer server.Close()
				tt.requestParam.RequestURI = server.URL
			}

			err := NewHTTPClient().DoHTTPRequest(context.Background(), tt.requestParam)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHTTPClient_DoHTTPRequest_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := NewHTTPClient().DoHTTPRequest(ctx, &RequestParam{
		Method:     "GET",
		RequestURI: server.URL,
		Response:   &map[string]interface{}{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestHTTPClient_DoHTTPRequest_RawResponse(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	var raw []byte
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		Method:     "POST",
		RequestURI: server.URL,
		Body:       []byte("image bytes"),
		Response:   &raw,
	})
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestHTTPClient_DoHTTPRequest_JSONResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image": "data:image/png;base64,AAAA"}`))
	}))
	defer server.Close()

	var out struct {
		Image string `json:"image"`
	}
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		Method:     "GET",
		RequestURI: server.URL,
		Response:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", out.Image)
}

func TestHTTPClient_DoHTTPRequest_EmptyBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		Method:     "POST",
		RequestURI: server.URL,
		Response:   &map[string]interface{}{},
	})
	assert.NoError(t, err)
}

func TestHTTPClient_DoHTTPRequest_ErrorStatusCodes(t *testing.T) {
	t.Parallel()

	statusCodes := []int{400, 401, 402, 403, 404, 500, 502, 503}

	for _, statusCode := range statusCodes {
		t.Run(strconv.Itoa(statusCode), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(statusCode)
				_, _ = w.Write([]byte("Error message"))
			}))
			defer server.Close()

			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				Method:     "GET",
				RequestURI: server.URL,
			})
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, statusCode, statusErr.StatusCode)
			assert.Equal(t, "Error message", string(statusErr.Body))
			assert.Contains(t, err.Error(), "HTTP request failed with status")
		})
	}
}
