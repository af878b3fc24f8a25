package stream

import (
	"sync"

	"github.com/pkoss/csvstream/scan"
	"github.com/pkoss/csvstream/transport"
)

// Defaults are the process-wide fallbacks a Streamer snapshots at
// construction. A running parse never rereads them.
type Defaults struct {
	// Delimiter is used when configuration and auto-detection both
	// fail to produce one.
	Delimiter string
	// LocalChunkSize segments in-memory input, in bytes.
	LocalChunkSize int
	// RemoteChunkSize sizes the byte ranges requested per fetch.
	RemoteChunkSize int
}

const defaultLocalChunkSize = 10 * 1024 * 1024

var (
	defaultsMu sync.RWMutex
	defaults   = Defaults{
		Delimiter:       ",",
		LocalChunkSize:  defaultLocalChunkSize,
		RemoteChunkSize: transport.DefaultChunkSize,
	}
)

// CurrentDefaults returns a copy of the process-wide defaults.
func CurrentDefaults() Defaults {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()

	return defaults
}

// SetDefaultDelimiter replaces the fallback delimiter. Invalid values
// are ignored.
func SetDefaultDelimiter(d string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if scan.ValidDelimiter(d) {
		defaults.Delimiter = d
	}
}

// SetLocalChunkSize replaces the in-memory chunk size.
func SetLocalChunkSize(n int) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if n > 0 {
		defaults.LocalChunkSize = n
	}
}

// SetRemoteChunkSize replaces the remote byte-range width.
func SetRemoteChunkSize(n int) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if n > 0 {
		defaults.RemoteChunkSize = n
	}
}
