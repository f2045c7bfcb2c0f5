// Package session owns the deep-link session lifecycle: creation,
// lookup, expiry, sweeping, and cross-call context accumulation.
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

// Stats reports session counts with expiry re-evaluated at call time.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Store persists sessions. The in-memory implementation is the default;
// the Redis implementation shares sessions across engine instances.
type Store interface {
	// Get returns the session and whether it exists. Expiry is the
	// manager's concern, not the store's.
	Get(ctx context.Context, id string) (*model.Session, bool, error)
	// Put inserts or replaces the session.
	Put(ctx context.Context, s *model.Session) error
	// Delete removes the session if present.
	Delete(ctx context.Context, id string) error
	// Sweep removes sessions whose last activity predates the cutoff
	// and returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	// Stats counts sessions, classifying by the cutoff.
	Stats(ctx context.Context, cutoff time.Time) (Stats, error)
}

// NewID generates a session id: base36 millisecond timestamp, an
// underscore, and a base36 random suffix.
func NewID(now time.Time) string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fall back to the clock; ids only need to be unique enough
		// to key short-lived sessions.
		binary.BigEndian.PutUint64(buf[:], uint64(now.UnixNano()))
	}
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	return strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}
