package constants

import (
	"time"
)

// Pagination
const (
	// ItemsPerPage - number of user records per UI page and per remote fetch.
	// This mirrors the server's fixed page size for GET /api/user/?p=N: the
	// backend slices its collection in units of this size, so the local page
	// cache must grow in the same units to stay a contiguous prefix.
	ItemsPerPage = 10
)

// HTTP client configuration
const (
	// HTTPDialTimeout - timeout for establishing TCP connections
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for established connections
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long idle connections stay in the pool
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for the TLS handshake
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - timeout for HTTP 100-continue
	HTTPExpectContinueTimeout = 5 * time.Second

	// HTTPRequestTimeout - overall timeout for a single API call.
	// Every gateway call is a small JSON exchange; anything slower than this
	// indicates a stuck proxy or an unreachable deployment.
	HTTPRequestTimeout = 60 * time.Second
)

// Retry configuration for the API transport
const (
	// APIRetryMax - maximum number of retries for transient HTTP errors
	APIRetryMax = 3

	// APIRetryWaitMin - initial delay before first retry
	APIRetryWaitMin = 500 * time.Millisecond

	// APIRetryWaitMax - maximum delay between retries
	APIRetryWaitMax = 10 * time.Second
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default per-subscriber channel buffer.
	// Sized so a slow terminal renderer does not drop list-change events
	// under normal interactive use.
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - upper bound on per-subscriber channel buffer
	EventBusMaxBuffer = 4096
)
