// Package transport delivers byte ranges of remote documents to the
// streaming layer. The streamer depends only on the Fetcher contract;
// the HTTP implementation lives alongside it.
package transport

import (
	"context"
	"errors"
)

// DefaultChunkSize is the byte-range width requested per fetch when
// the caller does not override it.
const DefaultChunkSize = 5 * 1024 * 1024

var (
	ErrMissingURL = errors.New("transport: no url given")
	ErrBadStatus  = errors.New("transport: unexpected http status")
	ErrEmptyRange = errors.New("transport: byte range is empty")
)

type (
	// Request names one byte range of one remote document. Start and
	// End are inclusive byte offsets.
	Request struct {
		URL     string
		Headers map[string]string
		// Body switches the request to POST when non-nil.
		Body []byte
		// WithCredentials applies the fetcher's configured
		// credentials (cookies, basic auth) to this request.
		WithCredentials bool
		Start, End      int64
	}

	// Chunk is the outcome of one range fetch, decoded as text.
	Chunk struct {
		Text      string
		BytesRead int64
		// AtEnd is set when the response shows the document is
		// exhausted: fewer bytes than requested, or the advertised
		// total size has been reached.
		AtEnd bool
	}

	// Fetcher delivers byte ranges. Implementations may suspend on
	// ctx; the streaming core requires nothing further of them.
	Fetcher interface {
		FetchRange(ctx context.Context, req Request) (Chunk, error)
	}
)
