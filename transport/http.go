package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/pkoss/csvstream/util"
)

// HTTP fetches byte ranges over HTTP(S). Servers that ignore Range
// requests are tolerated: the whole body is returned as one final
// chunk.
type HTTP struct {
	client   *http.Client
	jar      http.CookieJar
	username string
	password string
}

var _ Fetcher = (*HTTP)(nil)

const defaultTimeout = 30 * time.Second

func NewHTTP(options ...Option) *HTTP {
	h := HTTP{}

	for _, o := range options {
		o(&h)
	}

	if h.client == nil {
		h.client = &http.Client{Timeout: defaultTimeout}
	}

	if h.jar == nil {
		h.jar, _ = cookiejar.New(nil)
	}

	return &h
}

func (h *HTTP) FetchRange(ctx context.Context, req Request) (Chunk, error) {
	if req.URL == "" {
		return Chunk{}, ErrMissingURL
	}

	if req.End < req.Start {
		return Chunk{}, ErrEmptyRange
	}

	hreq, err := h.build(ctx, req)
	if err != nil {
		return Chunk{}, err
	}

	resp, err := h.do(hreq, req.WithCredentials)
	if err != nil {
		return Chunk{}, fmt.Errorf("failed to fetch %q: %w", req.URL, err)
	}

	return h.consume(resp, req)
}

func (h *HTTP) build(ctx context.Context, req Request) (*http.Request, error) {
	var (
		method = http.MethodGet
		body   io.Reader
	)

	if req.Body != nil {
		method = http.MethodPost
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", req.URL, err)
	}

	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}

	hreq.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", req.Start, req.End))

	return hreq, nil
}

func (h *HTTP) do(hreq *http.Request, credentials bool) (*http.Response, error) {
	client := *h.client

	if credentials {
		client.Jar = h.jar

		if h.username != "" {
			hreq.SetBasicAuth(h.username, h.password)
		}
	}

	return client.Do(hreq)
}

func (h *HTTP) consume(resp *http.Response, req Request) (c Chunk, err error) {
	defer func() {
		err = multierr.Append(err, resp.Body.Close())
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// Reading past the end of the document.
		return Chunk{AtEnd: true}, nil
	default:
		return Chunk{}, fmt.Errorf("%w: %s fetching %q", ErrBadStatus, resp.Status, req.URL)
	}

	body := resp.Body

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gerr := gzip.NewReader(resp.Body)
		if gerr != nil {
			return Chunk{}, fmt.Errorf("failed to open gzip body of %q: %w", req.URL, gerr)
		}
		defer func() {
			err = multierr.Append(err, gz.Close())
		}()
		body = gz
	}

	raw, rerr := io.ReadAll(body)
	if rerr != nil {
		return Chunk{}, fmt.Errorf("failed to read body of %q: %w", req.URL, rerr)
	}

	c = Chunk{
		Text:      util.BytesToString(raw),
		BytesRead: int64(len(raw)),
	}

	want := req.End - req.Start + 1

	switch {
	case resp.StatusCode == http.StatusOK:
		// Server ignored the range and sent the whole document.
		c.AtEnd = true
	case c.BytesRead < want:
		c.AtEnd = true
	default:
		if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
			c.AtEnd = req.Start+c.BytesRead >= total
		}
	}

	log.WithFields(log.Fields{
		"url":   req.URL,
		"start": req.Start,
		"bytes": c.BytesRead,
		"atEnd": c.AtEnd,
	}).Debug("fetched range")

	return c, nil
}

// contentRangeTotal extracts the total size from a header shaped like
// "bytes 0-499/1209". An unknown total ("/*") reports false.
func contentRangeTotal(v string) (int64, bool) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 || i == len(v)-1 {
		return 0, false
	}

	total, err := strconv.ParseInt(v[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}

	return total, true
}
