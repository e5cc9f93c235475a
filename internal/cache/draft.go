// Package cache holds in-memory stores backed by freecache.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/polyline"
)

// Waypoints are stored as a precision-6 polyline to keep entries small.
const storePrecision = 6

// MinDraftCacheBytes is the smallest size freecache accepts.
const MinDraftCacheBytes = 512 * 1024

// Draft is an unsaved route being edited.
type Draft struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Waypoints []geo.Point
	CreatedAt time.Time
}

type storedDraft struct {
	UserID    uuid.UUID `json:"user_id"`
	Line      string    `json:"line"`
	CreatedAt time.Time `json:"created_at"`
}

// DraftStore keeps drafts for ttl after they were last read or written. It is safe for
// concurrent use; callers that read, modify and write must serialise that
// sequence themselves.
type DraftStore struct {
	cache *freecache.Cache
	ttl   int
}

// NewDraftStore returns a store of sizeBytes capacity.
func NewDraftStore(sizeBytes int, ttl time.Duration) *DraftStore {
	return NewDraftStoreWithClock(sizeBytes, ttl, nil)
}

// NewDraftStoreWithClock is NewDraftStore with expiry measured against now.
// A nil now uses the wall clock.
func NewDraftStoreWithClock(sizeBytes int, ttl time.Duration, now func() time.Time) *DraftStore {
	if sizeBytes < MinDraftCacheBytes {
		sizeBytes = MinDraftCacheBytes
	}
	secs := int(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	if now == nil {
		return &DraftStore{cache: freecache.NewCache(sizeBytes), ttl: secs}
	}
	return &DraftStore{cache: freecache.NewCacheCustomTimer(sizeBytes, clockTimer(now)), ttl: secs}
}

// clockTimer adapts a clock to freecache's second-resolution Timer.
type clockTimer func() time.Time

func (c clockTimer) Now() uint32 { return uint32(c().Unix()) }

// Quantize rounds p to the precision drafts are stored at, so a point
// reads back exactly as it was written.
func Quantize(p geo.Point) geo.Point {
	const f = 1e6
	return geo.Point{Lat: math.Round(p.Lat*f) / f, Lng: math.Round(p.Lng*f) / f}
}

// Get returns the draft with id and restarts its TTL. Expired or unknown
// drafts are domain.ErrNotFound.
func (s *DraftStore) Get(id uuid.UUID) (Draft, error) {
	b, err := s.cache.Get(id[:])
	if errors.Is(err, freecache.ErrNotFound) {
		return Draft{}, fmt.Errorf("cache.DraftStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("cache.DraftStore.Get: %w", err)
	}

	var sd storedDraft
	if err := json.Unmarshal(b, &sd); err != nil {
		return Draft{}, fmt.Errorf("cache.DraftStore.Get: decode: %w", err)
	}
	points, err := polyline.DecodeWithPrecision(sd.Line, storePrecision)
	if err != nil {
		return Draft{}, fmt.Errorf("cache.DraftStore.Get: %w", err)
	}
	// A concurrent Delete may win; the read still succeeded.
	_ = s.cache.Touch(id[:], s.ttl)
	return Draft{ID: id, UserID: sd.UserID, Waypoints: points, CreatedAt: sd.CreatedAt}, nil
}

// Put stores d and restarts its TTL. A draft too large for the cache is
// rejected with domain.ErrValidation.
func (s *DraftStore) Put(d Draft) error {
	line, err := polyline.EncodeWithPrecision(d.Waypoints, storePrecision)
	if err != nil {
		return fmt.Errorf("cache.DraftStore.Put: %w", err)
	}
	b, err := json.Marshal(storedDraft{UserID: d.UserID, Line: line, CreatedAt: d.CreatedAt})
	if err != nil {
		return fmt.Errorf("cache.DraftStore.Put: %w", err)
	}
	if err := s.cache.Set(d.ID[:], b, s.ttl); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			return fmt.Errorf("cache.DraftStore.Put: %w: draft has too many waypoints", domain.ErrValidation)
		}
		return fmt.Errorf("cache.DraftStore.Put: %w", err)
	}
	return nil
}

// Delete removes the draft and reports whether it existed.
func (s *DraftStore) Delete(id uuid.UUID) bool {
	return s.cache.Del(id[:])
}

// Len returns the number of live entries.
func (s *DraftStore) Len() int64 {
	return s.cache.EntryCount()
}
