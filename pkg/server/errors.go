package server

import "errors"

// Sentinel errors returned by Server lifecycle operations. Wrap with
// fmt.Errorf("%w: ...") to add context; callers match with errors.Is.
var (
	// ErrAlreadyStarted is returned by Start when the server has left the
	// constructed state.
	ErrAlreadyStarted = errors.New("server: already started")

	// ErrNotRunning is returned by operations that require a running server.
	ErrNotRunning = errors.New("server: not running")

	// ErrPortInUse indicates the configured port is bound by another process.
	ErrPortInUse = errors.New("server: port already in use")

	// ErrPortPermission indicates the process lacks permission to bind the
	// configured port (typically ports below 1024 without privileges).
	ErrPortPermission = errors.New("server: permission denied binding port")

	// ErrMissingSession is returned by New when no session is configured.
	ErrMissingSession = errors.New("server: session is required")

	// ErrMissingSchema is returned by New when no dashboard schema is
	// configured.
	ErrMissingSchema = errors.New("server: schema is required")

	// ErrMissingResolver is returned by New when no resource resolver is
	// configured.
	ErrMissingResolver = errors.New("server: resolver is required")

	// ErrMissingDataSource is returned by New when no data source callback
	// is configured.
	ErrMissingDataSource = errors.New("server: data source is required")
)
