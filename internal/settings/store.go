// Package settings persists the one value the client remembers between runs:
// the last server address it used.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key is the name the address is stored under.
const Key = "server_url"

var (
	ErrNotFound      = errors.New("settings: no saved value")
	ErrUnknownScheme = errors.New("settings: unknown store scheme")
)

type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, address string) error
	Close() error
}

// DefaultDSN points at a sqlite file in the user's config directory.
func DefaultDSN() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return "sqlite://" + filepath.Join(dir, "wordgames", "settings.db"), nil
}

// Open picks a Store by DSN scheme: sqlite://<path>, redis://host:port/db or
// memory://. An empty dsn means DefaultDSN.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		d, err := DefaultDSN()
		if err != nil {
			return nil, err
		}
		dsn = d
	}

	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, dsn)
	}
	switch scheme {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(rest)
	case "redis", "rediss":
		return OpenRedis(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}
