package rembg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"time"

	nhttp "github.com/chaos-io/photoframe/util/http"
)

const (
	DefaultEndpoint = "https://api.remove.bg/v1.0/removebg"
	DefaultSize     = "auto"
	DefaultTimeout  = 30 * time.Second
)

type Encoding string

const (
	// EncodingMultipart sends the file as multipart field image_file.
	EncodingMultipart Encoding = "multipart"
	// EncodingBase64 sends a urlencoded form with image_file_b64.
	EncodingBase64 Encoding = "base64"
)

type Config struct {
	APIKey   string
	Endpoint string
	Size     string
	Encoding Encoding
	Timeout  time.Duration
}

// Client talks to a remove.bg compatible API.
type Client struct {
	cfg Config
	cli nhttp.IClient
}

func NewClient(cfg Config, cli nhttp.IClient) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingMultipart
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cli == nil {
		cli = nhttp.NewHTTPClientWithTimeout(cfg.Timeout)
	}
	return &Client{cfg: cfg, cli: cli}
}

func (c *Client) Validate() error {
	if c.cfg.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

func (c *Client) Remove(ctx context.Context, filename string, image io.Reader) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var (
		body        *bytes.Buffer
		contentType string
		err         error
	)
	switch c.cfg.Encoding {
	case EncodingBase64:
		body, contentType, err = c.base64Body(image)
	default:
		body, contentType, err = c.multipartBody(filename, image)
	}
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}

	var out []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: c.cfg.Endpoint,
		Method:     "POST",
		Header: map[string]string{
			"X-Api-Key":    c.cfg.APIKey,
			"Content-Type": contentType,
		},
		Body:     body,
		Response: &out,
		Timeout:  c.cfg.Timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		var statusErr *nhttp.StatusError
		if errors.As(err, &statusErr) {
			return nil, &RemoteError{StatusCode: statusErr.StatusCode, Body: string(statusErr.Body)}
		}
		return nil, &TransportError{Op: "do request", Err: err}
	}
	if len(out) == 0 {
		return nil, &TransportError{Op: "read response", Err: errors.New("empty image in response")}
	}

	return out, nil
}

/*
	curl -H 'X-Api-Key: KEY' \
	  -F 'image_file=@photo.jpg' \
	  -F 'size=auto' \
	  -f https://api.remove.bg/v1.0/removebg -o no-bg.png
*/
func (c *Client) multipartBody(filename string, image io.Reader) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename == "" {
		filename = "photo"
	}
	part, err := writer.CreateFormFile("image_file", filepath.Base(filename))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("copy form file: %w", err)
	}
	if err := writer.WriteField("size", c.cfg.Size); err != nil {
		return nil, "", fmt.Errorf("write size field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (c *Client) base64Body(image io.Reader) (*bytes.Buffer, string, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	form := url.Values{
		"image_file_b64": {base64.StdEncoding.EncodeToString(data)},
		"size":           {c.cfg.Size},
	}
	return bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded", nil
}
