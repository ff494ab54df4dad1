package personality

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// sentimentAlpha is the weight of the newest reading in the running
// sentiment average.
const sentimentAlpha = 0.3

type Relationship struct {
	PersonID     string         `json:"person_id"`
	Interactions int            `json:"interactions"`
	Sentiment    float64        `json:"sentiment"`
	Kinds        map[string]int `json:"kinds,omitempty"`
	LastSeen     time.Time      `json:"last_seen"`
}

// RelationshipTracker remembers how interactions with each person went.
type RelationshipTracker struct {
	mu     sync.RWMutex
	people map[string]*Relationship
	now    func() time.Time
}

func NewRelationshipTracker() *RelationshipTracker {
	return &RelationshipTracker{
		people: make(map[string]*Relationship),
		now:    time.Now,
	}
}

// AddInteraction records one interaction of the given kind. Blank ids are
// ignored.
func (t *RelationshipTracker) AddInteraction(personID, kind string, sentiment float64) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return
	}
	sentiment = clamp(sentiment, -1, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.people[personID]
	if !ok {
		r = &Relationship{PersonID: personID, Kinds: map[string]int{}, Sentiment: sentiment}
		t.people[personID] = r
	} else {
		r.Sentiment = sentimentAlpha*sentiment + (1-sentimentAlpha)*r.Sentiment
	}
	r.Interactions++
	if kind != "" {
		r.Kinds[kind]++
	}
	r.LastSeen = t.now()
}

func (t *RelationshipTracker) Get(personID string) (Relationship, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.people[personID]
	if !ok {
		return Relationship{}, false
	}
	out := *r
	out.Kinds = make(map[string]int, len(r.Kinds))
	for k, v := range r.Kinds {
		out.Kinds[k] = v
	}
	return out, true
}

// Context renders a one-line summary, empty for unknown or blank ids.
func (t *RelationshipTracker) Context(personID string) string {
	r, ok := t.Get(strings.TrimSpace(personID))
	if !ok {
		return ""
	}

	feel := "neutral"
	switch {
	case r.Sentiment > 0.3:
		feel = "warm"
	case r.Sentiment < -0.3:
		feel = "strained"
	}

	times := "times"
	if r.Interactions == 1 {
		times = "time"
	}
	return fmt.Sprintf("I have talked with %s %d %s; our relationship feels %s.", r.PersonID, r.Interactions, times, feel)
}
