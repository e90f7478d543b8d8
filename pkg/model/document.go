package model

import "github.com/google/uuid"

// Document is a single corpus record. Its index is its identity: documents
// are loaded once, in order, and never mutated afterwards.
type Document struct {
	Index int
	Text  string
}

// Retrieval is a document returned by a nearest-neighbor search, together
// with its squared Euclidean distance to the query vector.
type Retrieval struct {
	Document Document
	Distance float32
}

// Turn is one completed exchange in a conversation.
type Turn struct {
	User      string
	Assistant string
}

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}
