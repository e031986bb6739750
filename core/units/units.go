// Package units defines plain numeric size and time multipliers used for
// buffer-size and timeout defaults across the server.
package units

import "time"

// Sizes in bytes.
const (
	Byte     = 1
	Kilobyte = 1 << 10
	Megabyte = 1 << 20
	Gigabyte = 1 << 30
)

// Durations for timeout configuration.
const (
	Millisecond = time.Millisecond
	Second      = time.Second
	Minute      = time.Minute
)
