package model

import "time"

// RelayHop is one synthetic relay traversal in a simulated delivery path.
type RelayHop struct {
	Source string
	Dest   string
	ID     string
	Time   time.Time
}

// ComposedMessage is one fully assembled email, serialized and ready to persist.
type ComposedMessage struct {
	From      string
	To        string
	Subject   string
	MessageID string
	Date      time.Time
	Size      int64
	Raw       []byte
}

// Artifact pairs serialized message bytes with the name a sink should store
// them under.
type Artifact struct {
	Name string
	From string
	Date time.Time
	Data []byte
}
