// Package replay records the IDs of tokens that have already been accepted
// so that a verifier can refuse to accept the same token twice.
package replay

import (
	"errors"
	"time"
)

var (
	ErrReplayed         = errors.New("token ID has already been used")
	ErrEmptyID          = errors.New("token ID cannot be empty")
	ErrCapacityExceeded = errors.New("replay cache is full")
	ErrClosed           = errors.New("replay cache is closed")
)

// Store defines the interface for used-ID storage implementations
type Store interface {
	// Claim records id until expiresAt. It returns false when id is already
	// recorded and has not expired yet.
	Claim(id string, expiresAt time.Time) (bool, error)

	// Contains checks if an unexpired id is recorded
	Contains(id string) (bool, error)

	// Cleanup removes expired IDs and returns how many were removed
	Cleanup() (int, error)

	// Size returns the current number of recorded IDs
	Size() (int, error)

	// Close closes the store and releases resources
	Close() error
}

// Config represents replay cache configuration
type Config struct {
	// MaxSize bounds the number of IDs kept in memory
	MaxSize int `yaml:"max_size" json:"max_size"`

	// CleanupInterval defines how often expired IDs are removed
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`

	// EnableAutoCleanup runs Cleanup every CleanupInterval in the background
	EnableAutoCleanup bool `yaml:"enable_auto_cleanup" json:"enable_auto_cleanup"`
}

// DefaultConfig returns a replay cache configuration for production use
func DefaultConfig() Config {
	return Config{
		MaxSize:           100000,
		CleanupInterval:   5 * time.Minute,
		EnableAutoCleanup: true,
	}
}
