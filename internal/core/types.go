package core

import (
	"time"
)

const (
	ServiceName      = "MotherBrain"
	ServiceVersion   = "0.1.0"
	DefaultSessionID = "default"
)

type MemoryType string

const (
	ShortTerm MemoryType = "short_term"
	LongTerm  MemoryType = "long_term"
	Dialog    MemoryType = "dialog"
)

// Key prefixes of the retention tiers. PrefixAll matches every tier.
const (
	PrefixAll       = ""
	PrefixShortTerm = "st:"
	PrefixLongTerm  = "lt:"
)

// Auxiliary context signals recognised by the retention policy.
const (
	ContextUserEmotion  = "user_emotion"
	ContextCriticalInfo = "critical_info"
	ContextUserID       = "user_id"
	ContextSessionID    = "session_id"
)

func (t MemoryType) Valid() bool {
	switch t {
	case ShortTerm, LongTerm, Dialog:
		return true
	}
	return false
}

// Prefix returns the key prefix of the tier. Dialog records live in the
// short-term pool.
func (t MemoryType) Prefix() string {
	if t == LongTerm {
		return PrefixLongTerm
	}
	return PrefixShortTerm
}

// Memory is one stored dialog turn. Content, Timestamp, Importance and
// Embedding are fixed at creation.
type Memory struct {
	Key        string         `json:"-"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Importance float64        `json:"importance"`
	Context    map[string]any `json:"context,omitempty"`
	Type       MemoryType     `json:"memory_type"`
	Embedding  []float32      `json:"-"`
	SessionID  string         `json:"session_id,omitempty"`
}

// MatchesPrefix reports whether the memory belongs to the tier selected by
// prefix.
func (m Memory) MatchesPrefix(prefix string) bool {
	return prefix == PrefixAll || m.Type.Prefix() == prefix
}

// Turn is a completed user/assistant exchange.
type Turn struct {
	SessionID  string
	UserText   string
	AIResponse string
	Context    map[string]any
	At         time.Time
}

func (t Turn) Text() string {
	return "User: " + t.UserText + "\nAI: " + t.AIResponse
}
