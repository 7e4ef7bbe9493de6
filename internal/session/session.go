package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"bakerychat/internal/catalog"
	"bakerychat/internal/memory"
	"bakerychat/internal/models"
)

// Archive persists transcripts so a returning visitor can resume
type Archive interface {
	Load(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	Append(ctx context.Context, sessionID string, start int, msgs ...models.ChatMessage) error
}

// Session is one visitor's state: their transcript and their working copy
// of the bakery profile
type Session struct {
	ID        string
	CreatedAt time.Time

	turn     sync.Mutex
	lastSeen atomic.Int64

	mu      sync.RWMutex
	profile models.BakeryProfile
	warning string

	conversation *memory.Conversation
	archive      Archive
	logger       logrus.FieldLogger

	// archived counts the transcript messages already written to archive
	archiveMu sync.Mutex
	archived  int
}

func newSession(id string, profile models.BakeryProfile, warning string, conversation *memory.Conversation, archived int, archive Archive, logger logrus.FieldLogger) *Session {
	s := &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		profile:      profile,
		warning:      warning,
		conversation: conversation,
		archive:      archive,
		archived:     archived,
		logger:       logger.WithField("session", id),
	}
	s.touch()
	return s
}

// New returns a standalone session without an archive
func New(id string, profile models.BakeryProfile) *Session {
	return newSession(id, profile, "", memory.NewConversation(), 0, nil, logrus.StandardLogger())
}

// BeginTurn blocks until no other turn of this session is running. The
// returned func ends the turn.
func (s *Session) BeginTurn() func() {
	s.turn.Lock()
	s.touch()
	return s.turn.Unlock
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen is when the session was last resolved or started a turn
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Transcript returns the conversation so far
func (s *Session) Transcript() []models.ChatMessage {
	return s.conversation.Messages()
}

// Commit appends msgs to the transcript and archives everything not yet
// archived, so a new session's greeting is written with its first exchange.
// Archive failures are logged and retried on the next commit; the in-memory
// transcript stays authoritative.
func (s *Session) Commit(ctx context.Context, msgs ...models.ChatMessage) {
	for _, msg := range msgs {
		s.conversation.Append(msg)
	}
	if s.archive == nil {
		return
	}

	s.archiveMu.Lock()
	defer s.archiveMu.Unlock()
	pending := s.conversation.Messages()[s.archived:]
	if err := s.archive.Append(ctx, s.ID, s.archived, pending...); err != nil {
		s.logger.WithError(err).Warn("could not archive chat messages")
		return
	}
	s.archived += len(pending)
}

// Profile returns a copy of the session's bakery profile
func (s *Session) Profile() models.BakeryProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// EditProfile applies fn to the session profile under the session lock
func (s *Session) EditProfile(fn func(p *models.BakeryProfile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.profile)
}

// SetHeader replaces the profile's general information
func (s *Session) SetHeader(header models.ProfileHeader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog.UpdateHeader(&s.profile, header)
}

// Warning is the message shown when the profile could not be loaded
func (s *Session) Warning() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warning
}
