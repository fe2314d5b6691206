package utils

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	kflate "github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, deflate, br, zstd"

// NewCompressedTransport returns a RoundTripper that advertises gzip, deflate,
// br and zstd and hands callers a decoded body. base may be nil.
func NewCompressedTransport(base *http.Transport) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	base.DisableCompression = true
	return &compressedTransport{base: base}
}

type compressedTransport struct {
	base http.RoundTripper
}

func (t *compressedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, ok := decodeBody(strings.ToLower(resp.Header.Get("Content-Encoding")), resp.Body)
	if !ok {
		return resp, nil
	}

	resp.Body = body
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodeBody wraps raw with a decoder for encoding. ok is false when the
// encoding is unknown or the decoder could not start, the raw body is kept.
func decodeBody(encoding string, raw io.ReadCloser) (io.ReadCloser, bool) {
	switch encoding {
	case "gzip":
		r, err := kgzip.NewReader(raw)
		if err != nil {
			return nil, false
		}
		return &decodedBody{Reader: r, release: func() { _ = r.Close() }, raw: raw}, true
	case "deflate":
		r := kflate.NewReader(raw)
		return &decodedBody{Reader: r, release: func() { _ = r.Close() }, raw: raw}, true
	case "br":
		return &decodedBody{Reader: brotli.NewReader(raw), raw: raw}, true
	case "zstd":
		r, err := zstd.NewReader(raw)
		if err != nil {
			return nil, false
		}
		return &decodedBody{Reader: r, release: r.Close, raw: raw}, true
	default:
		return nil, false
	}
}

type decodedBody struct {
	io.Reader
	release func()
	raw     io.Closer
}

func (d *decodedBody) Close() error {
	if d.release != nil {
		d.release()
	}
	return d.raw.Close()
}
