package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	nhttp "github.com/chaos-io/photoframe/util/http"
	jsoniter "github.com/json-iterator/go"
)

const removeBGPath = "/api/remove-bg"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInvalidDataURL = errors.New("invalid data url")

// ServerError is a non-2xx answer from the proxy.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// Client calls the background-removal proxy.
type Client struct {
	baseURL string
	cli     nhttp.IClient
}

func New(baseURL string, cli nhttp.IClient) *Client {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), cli: cli}
}

type removeBGResp struct {
	Image string `json:"image"`
}

// RemoveBackground uploads photo and returns the processed image bytes.
func (c *Client) RemoveBackground(ctx context.Context, photo []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", "photo")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	resp := &removeBGResp{}
	err = c.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: c.baseURL + removeBGPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   resp,
	})
	if err != nil {
		var statusErr *nhttp.StatusError
		if errors.As(err, &statusErr) {
			return nil, serverError(statusErr)
		}
		return nil, fmt.Errorf("do request: %w", err)
	}

	return DecodeDataURL(resp.Image)
}

// DecodeDataURL returns the payload of a base64 data URL.
func DecodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrInvalidDataURL
	}
	_, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return data, nil
}

func serverError(e *nhttp.StatusError) *ServerError {
	out := &ServerError{StatusCode: e.StatusCode, Message: strings.TrimSpace(string(e.Body))}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(e.Body, &body) == nil && body.Error != "" {
		out.Message = body.Error
		out.Code = body.Code
	}
	return out
}
