package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// UploadedFileRef identifies a document held by the external file store
type UploadedFileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Turn represents a single message in the conversation. Turns are never modified after Append.
type Turn struct {
	Role    Role
	Content Content
}

// Session represents one user's chat session.
//
// A session starts with the disclaimer unaccepted and an empty transcript. It is mutated only
// through the chatbot controller and persisted by a Store; Version is owned by the Store.
type Session struct {
	ID                 string           `json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Version            int64            `json:"version"`
	DisclaimerAccepted bool             `json:"disclaimer_accepted"`
	Transcript         []Turn           `json:"transcript"`
	PendingFile        *UploadedFileRef `json:"pending_file,omitempty"`
}

// New creates an empty session with a fresh ID
func New() *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Transcript: []Turn{},
	}
}

// Append adds a turn to the end of the transcript
func (s *Session) Append(t Turn) {
	s.Transcript = append(s.Transcript, t)
}

// History returns a copy of the transcript
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}

// TakePendingFile returns the pending upload, if any, and clears it
func (s *Session) TakePendingFile() *UploadedFileRef {
	ref := s.PendingFile
	s.PendingFile = nil
	return ref
}

// Clone returns a copy that shares no mutable state with s
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = s.History()
	if s.PendingFile != nil {
		ref := *s.PendingFile
		c.PendingFile = &ref
	}
	return &c
}
