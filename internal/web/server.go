package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"MedLegalChat/internal/chatbot"
	"MedLegalChat/internal/session"
)

const (
	sessionCookie = "medlegalchat_session"
	maxUploadSize = 20 << 20
)

// Pinger is a dependency reported by /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the chat page and its form actions. Each request loads the caller's session
// from the store, applies one controller operation and writes the session back.
type Server struct {
	bot     *chatbot.ChatBot
	store   session.Store
	logger  *slog.Logger
	limiter *rateLimiter
	checks  map[string]Pinger
	now     func() time.Time
}

// NewServer creates a Server. ratePerMinute <= 0 disables throttling.
func NewServer(bot *chatbot.ChatBot, store session.Store, logger *slog.Logger, ratePerMinute, burst int) *Server {
	return &Server{
		bot:     bot,
		store:   store,
		logger:  logger,
		limiter: newRateLimiter(ratePerMinute, burst),
		checks:  make(map[string]Pinger),
		now:     time.Now,
	}
}

// AddHealthCheck registers a dependency reported by /health
func (s *Server) AddHealthCheck(name string, p Pinger) {
	s.checks[name] = p
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /disclaimer", s.limit(http.HandlerFunc(s.handleDisclaimer)))
	mux.Handle("POST /upload", s.limit(http.HandlerFunc(s.handleUpload)))
	mux.Handle("POST /chat", s.limit(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /save", s.limit(http.HandlerFunc(s.handleSave)))
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// loadSession returns the caller's session, creating one (and setting the cookie) when the
// cookie is missing or refers to a session the store no longer has.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	ctx := r.Context()
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		sess, err := s.store.Get(ctx, c.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
		s.logger.Info("session expired, creating new one", "session_id", c.Value)
	}

	sess := session.New()
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("created new session", "session_id", sess.ID, "mode", "web")
	return sess, nil
}

// saveSession writes sess back and returns the session to render. When another window wrote first,
// the stored session is returned instead so the page never shows turns that were not kept.
func (s *Server) saveSession(ctx context.Context, sess *session.Session, v *pageView) *session.Session {
	err := s.store.Update(ctx, sess)
	if err == nil {
		return sess
	}

	s.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
	if !errors.Is(err, session.ErrVersionConflict) {
		v.Error = "An error occurred: " + err.Error()
		return sess
	}

	v.Notice = ""
	v.Error = "This conversation was changed in another window, so your last action was not saved. Please try again."
	stored, getErr := s.store.Get(ctx, sess.ID)
	if getErr != nil {
		s.logger.Error("failed to reload session", "session_id", sess.ID, "error", getErr)
		return sess
	}
	return stored
}
