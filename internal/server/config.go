package server

import "time"

// Config holds settings for the game listener
type Config struct {
	Host string
	Port int
	// MaxLineLength is the longest inbound line accepted, excluding the terminator
	MaxLineLength int
	// IdleTimeout closes connections that send nothing for this long; 0 disables it
	IdleTimeout time.Duration
	// CloseTimeout bounds how long a closing connection may spend flushing queued lines
	CloseTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the game listener
func DefaultConfig() Config {
	return Config{
		Host:          "",
		Port:          5555,
		MaxLineLength: 512,
		IdleTimeout:   30 * time.Minute,
		CloseTimeout:  2 * time.Second,
	}
}
