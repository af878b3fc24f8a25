package stream

import (
	"context"
	"fmt"

	"github.com/pkoss/csvstream/transport"
)

// Parse runs a whole in-memory input through the chunk protocol and
// returns the terminal result. It is synchronous; with a step or
// chunk callback configured the returned result carries no data, only
// errors and meta.
func Parse(input string, cfg Config) (*Result, error) {
	s := NewStreamer(cfg)

	size := cfg.ChunkSize
	if size <= 0 {
		size = s.def.LocalChunkSize
	}

	if len(input) == 0 {
		if err := s.Feed("", true); err != nil {
			return nil, err
		}

		return s.Result(), nil
	}

	for at := 0; at < len(input) && !s.Done(); at += size {
		end := at + size
		if end > len(input) {
			end = len(input)
		}

		if err := s.Feed(input[at:end], end == len(input)); err != nil {
			return nil, err
		}
	}

	return s.Result(), nil
}

// ParseURL downloads url range by range and streams it through the
// parser. The first range starts at cfg.Offset; the caller must have
// placed it on a row boundary. A transport failure goes to the error
// callback and is returned; complete is not invoked after it.
func ParseURL(ctx context.Context, url string, cfg Config) (*Result, error) {
	s := NewStreamer(cfg)

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = transport.NewHTTP()
	}

	size := int64(cfg.ChunkSize)
	if size <= 0 {
		size = int64(s.def.RemoteChunkSize)
	}

	for offset := cfg.Offset; !s.Done(); {
		chunk, err := fetcher.FetchRange(ctx, transport.Request{
			URL:             url,
			Headers:         cfg.RequestHeaders,
			Body:            cfg.RequestBody,
			WithCredentials: cfg.WithCredentials,
			Start:           offset,
			End:             offset + size - 1,
		})
		if err != nil {
			err = fmt.Errorf("failed to fetch chunk at offset %d: %w", offset, err)
			s.fail(err)
			return nil, err
		}

		// An empty non-final chunk would never advance the offset.
		if chunk.BytesRead == 0 {
			chunk.AtEnd = true
		}

		s.meta.NumBytes += chunk.BytesRead
		offset += chunk.BytesRead

		if err := s.Feed(chunk.Text, chunk.AtEnd); err != nil {
			return nil, err
		}

		if chunk.AtEnd {
			break
		}
	}

	return s.Result(), nil
}
