package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidRequestDelay is returned when the delay between fetches is negative.
	// Use 0 to disable pacing.
	ErrInvalidRequestDelay = errors.New("invalid scraper.request_delay: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid scraper.timeout: must be positive")

	// ErrInvalidMaxPages is returned when the default page limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid scraper.max_pages: must be positive")

	// ErrInvalidMaxBodySize is returned when the body cap is negative.
	// Use 0 for no limit.
	ErrInvalidMaxBodySize = errors.New("invalid scraper.max_body_size: must be non-negative")

	// ErrMissingStoragePath is returned when the sqlite store has no file path.
	ErrMissingStoragePath = errors.New("storage.path is required for the sqlite store")

	// ErrMissingStorageDSN is returned when the postgres store has no DSN.
	ErrMissingStorageDSN = errors.New("storage.dsn is required for the postgres store")

	// ErrUnknownStorageType is returned for storage types other than sqlite, postgres and memory.
	ErrUnknownStorageType = errors.New("unknown storage.type")

	// ErrUnknownLogFormat is returned for log formats other than text, json and logfmt.
	ErrUnknownLogFormat = errors.New("unknown logging.format")
)
