// Package storage holds the key scheme shared by the memory stores.
package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/motherbrain/internal/core"
)

const (
	// KeySegment separates the tier prefix from the insertion stamp.
	KeySegment = "memory:"

	// isoLayout is RFC 3339 with a fixed nine-digit fraction so keys sort
	// lexically.
	isoLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Clock hands out strictly increasing timestamps, so two inserts never
// share a key even when the wall clock does not advance between them.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockFunc is NewClock with an injectable time source.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// TierKey renders `<tier>memory:<zero padded unix nanos>`.
func TierKey(tier string, at time.Time) string {
	return fmt.Sprintf("%s%s%020d", tier, KeySegment, at.UnixNano())
}

// HashKey renders `memory:<iso-8601 timestamp>`.
func HashKey(at time.Time) string {
	return KeySegment + at.UTC().Format(isoLayout)
}

// Pattern returns the SCAN/KEYS glob selecting a tier of prefix keys.
func Pattern(prefix string) string {
	if prefix == core.PrefixAll {
		return "*:" + KeySegment + "*"
	}
	return prefix + KeySegment + "*"
}

// Stamp returns the insertion stamp part of a key.
func Stamp(key string) string {
	if i := strings.LastIndex(key, KeySegment); i >= 0 {
		return key[i+len(KeySegment):]
	}
	return key
}

// SortByInsertion orders memories oldest first by key stamp. Both key
// layouts use fixed-width stamps, so lexical order is insertion order.
func SortByInsertion(mems []core.Memory) {
	sort.SliceStable(mems, func(i, j int) bool {
		return Stamp(mems[i].Key) < Stamp(mems[j].Key)
	})
}
