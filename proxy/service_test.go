package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chaos-io/photoframe/rembg"
	"github.com/chaos-io/photoframe/upload"
	"github.com/chaos-io/photoframe/util"
	"github.com/chaos-io/photoframe/util/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyRemover struct {
	validateErr error
	out         []byte
	err         error
	calls       atomic.Int32
	seen        []byte
}

func (s *spyRemover) Validate() error { return s.validateErr }

func (s *spyRemover) Remove(ctx context.Context, filename string, r io.Reader) ([]byte, error) {
	s.calls.Add(1)
	s.seen, _ = io.ReadAll(r)
	return s.out, s.err
}

func diskStore(t *testing.T) (*upload.Disk, string) {
	t.Helper()
	dir := t.TempDir()
	d, err := upload.NewDisk(dir, 0)
	require.NoError(t, err)
	return d, dir
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_NoFile(t *testing.T) {
	t.Parallel()

	spy := &spyRemover{}
	store, dir := diskStore(t)
	s := New(spy, store, log.Discard())

	_, err := s.RemoveBackground(context.Background(), Upload{})
	assert.ErrorIs(t, err, ErrNoFileUploaded)

	_, err = s.RemoveBackgroundBytes(context.Background(), "empty.png", nil)
	assert.ErrorIs(t, err, ErrNoFileUploaded)

	// unknown size that turns out empty
	_, err = s.RemoveBackground(context.Background(), Upload{Filename: "x", Size: -1, Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrNoFileUploaded)

	assert.Zero(t, spy.calls.Load())
	assertEmptyDir(t, dir)
}

func TestService_MissingCredential(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer remote.Close()

	store, dir := diskStore(t)
	s := New(rembg.NewClient(rembg.Config{Endpoint: remote.URL}, nil), store, log.Discard())

	_, err := s.RemoveBackgroundBytes(context.Background(), "me.jpg", []byte("photo"))
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, hits.Load())
	assertEmptyDir(t, dir)
}

func TestService_RemoteServiceError(t *testing.T) {
	t.Parallel()

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid image"))
	}))
	defer remote.Close()

	store, dir := diskStore(t)
	s := New(rembg.NewClient(rembg.Config{APIKey: "k", Endpoint: remote.URL}, nil), store, log.Discard())

	_, err := s.RemoveBackgroundBytes(context.Background(), "me.jpg", []byte("photo"))

	var remoteErr *RemoteServiceError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, "invalid image", remoteErr.Body)
	assertEmptyDir(t, dir)
}

func TestService_TransportError(t *testing.T) {
	t.Parallel()

	spy := &spyRemover{err: &TransportError{Op: "do request", Err: io.ErrUnexpectedEOF}}
	store, dir := diskStore(t)
	s := New(spy, store, log.Discard())

	_, err := s.RemoveBackgroundBytes(context.Background(), "me.jpg", []byte("photo"))
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assertEmptyDir(t, dir)
}

func TestService_Success(t *testing.T) {
	t.Parallel()

	spy := &spyRemover{out: []byte("cutout")}
	store, dir := diskStore(t)
	s := New(spy, store, log.Discard())

	res, err := s.RemoveBackgroundBytes(context.Background(), "me.jpg", []byte("photo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("cutout"), res.Data)
	assert.False(t, res.Skipped)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("cutout")), res.DataURL())
	assert.Equal(t, []byte("photo"), spy.seen)
	assertEmptyDir(t, dir)
}

func TestService_TooLarge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := upload.NewDisk(dir, 3)
	require.NoError(t, err)
	spy := &spyRemover{out: []byte("x")}
	s := New(spy, store, log.Discard())

	_, err = s.RemoveBackgroundBytes(context.Background(), "me.jpg", []byte("photo"))
	assert.ErrorIs(t, err, upload.ErrTooLarge)
	assert.Zero(t, spy.calls.Load())
	assertEmptyDir(t, dir)
}

func TestService_SkipTransparent(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	transparent, err := util.EncodePNG(img)
	require.NoError(t, err)

	spy := &spyRemover{out: []byte("cutout")}
	s := New(spy, upload.NewMemory(0), log.Discard(), WithSkipTransparent(true))

	res, err := s.RemoveBackgroundBytes(context.Background(), "cut.png", transparent)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, spy.calls.Load())

	decoded, err := util.DecodeImage(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())

	// opaque input still goes to the remote service
	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	data, err := util.EncodePNG(opaque)
	require.NoError(t, err)
	res, err = s.RemoveBackgroundBytes(context.Background(), "opaque.png", data)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, int32(1), spy.calls.Load())
}
