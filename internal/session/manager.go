package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bakerychat/internal/catalog"
	"bakerychat/internal/memory"
	"bakerychat/internal/models"
)

const (
	// CookieName carries the signed session token
	CookieName = "bakery_session"
	// ContextKey is where Middleware stores the *Session on the gin context
	ContextKey = "session"

	DefaultMaxAge      = 30 * 24 * time.Hour
	DefaultIdleTimeout = 2 * time.Hour
)

// Options configures a Manager
type Options struct {
	Secret string
	MaxAge time.Duration
	// IdleTimeout is how long an unused session stays in memory. Evicted
	// sessions are resumed from the archive on their next request.
	IdleTimeout time.Duration
	Secure      bool
}

// Manager owns every live session and maps tokens to them
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	catalog     *catalog.Catalog
	archive     Archive
	secret      []byte
	maxAge      time.Duration
	idleTimeout time.Duration
	secure      bool
	logger      logrus.FieldLogger
}

// NewManager creates a session manager. Profiles are loaded from cat; archive
// may be nil to keep transcripts in memory only.
func NewManager(cat *catalog.Catalog, archive Archive, opts Options, logger logrus.FieldLogger) *Manager {
	secret := opts.Secret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("no session secret configured, sessions will not survive a restart")
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		catalog:     cat,
		archive:     archive,
		secret:      []byte(secret),
		maxAge:      opts.MaxAge,
		idleTimeout: opts.IdleTimeout,
		secure:      opts.Secure,
		logger:      logger,
	}
}

// Get returns the live session with id, resuming it from the archive when it
// is not in memory. An empty id starts a new session.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if s := m.lookup(id); s != nil {
		return s
	}

	// open reads the menu and the archive, so it runs unlocked; a concurrent
	// open of the same id loses to whichever was stored first.
	opened := m.open(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch()
		return s
	}
	m.sessions[id] = opened
	return opened
}

func (m *Manager) lookup(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	s.touch()
	return s
}

// Sweep evicts sessions idle since before now minus the idle timeout and
// returns how many were dropped. Sessions in the middle of a turn are kept.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if !s.LastSeen().Before(cutoff) {
			continue
		}
		if !s.turn.TryLock() {
			continue
		}
		delete(m.sessions, id)
		s.turn.Unlock()
		evicted++
	}
	if evicted > 0 {
		m.logger.WithFields(logrus.Fields{
			"evicted": evicted,
			"live":    len(m.sessions),
		}).Debug("idle sessions evicted")
	}
	return evicted
}

// Run sweeps idle sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.idleTimeout / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) open(ctx context.Context, id string) *Session {
	logger := m.logger.WithField("session", id)

	profile, err := m.catalog.Load()
	warning := ""
	if err != nil {
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		warning = fmt.Sprintf("Error reading CSV file: %v", cause)
		logger.WithError(err).Warn("using default bakery information")
	}

	var archived []models.ChatMessage
	if m.archive != nil {
		archived, err = m.archive.Load(ctx, id)
		if err != nil {
			logger.WithError(err).Warn("could not load archived transcript")
		}
	}
	conversation := memory.Restore(archived)

	s := newSession(id, profile, warning, conversation, len(archived), m.archive, m.logger)
	logger.WithField("resumed", len(archived) > 0).Debug("session opened")
	return s
}

// Issue signs a token for a session id
func (m *Manager) Issue(id string) (string, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Id:        id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.maxAge).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// Parse validates a token and returns the session id it carries
func (m *Manager) Parse(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.Id == "" {
		return "", errors.New("session token has no id")
	}
	return claims.Id, nil
}

// Middleware resolves the visitor's session from the cookie, starting a new
// one when the cookie is missing or invalid
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cookie, err := c.Cookie(CookieName); err == nil {
			if parsed, err := m.Parse(cookie); err == nil {
				id = parsed
			}
		}

		s := m.Get(c.Request.Context(), id)
		if id == "" {
			token, err := m.Issue(s.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, token, int(m.maxAge.Seconds()), "/", "", m.secure, true)
		}

		c.Set(ContextKey, s)
		c.Next()
	}
}

// FromContext returns the session Middleware attached to c
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(ContextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}
