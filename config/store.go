package config

import (
	"fmt"
	"time"
)

// StoreConfig selects the roster backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `json:"backend"`
	// Path is the sqlite database file. ":memory:" keeps it in process.
	Path string `json:"path"`
	// Seed is an optional YAML roster loaded at startup.
	Seed string `json:"seed"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "skyops.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required for sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

// CacheConfig controls the read cache in front of the roster store.
type CacheConfig struct {
	// TTLSeconds is how long roster lists are served from memory. A negative
	// value disables the cache.
	TTLSeconds int `json:"ttl_seconds"`
}

func (c *CacheConfig) SetDefaults() {
	if c.TTLSeconds == 0 {
		c.TTLSeconds = 60
	}
}

func (c CacheConfig) Validate() error { return nil }

// Enabled reports whether reads go through the cache.
func (c CacheConfig) Enabled() bool { return c.TTLSeconds > 0 }

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }
