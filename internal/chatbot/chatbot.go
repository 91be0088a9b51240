package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"MedLegalChat/internal/backend"
	"MedLegalChat/internal/cache"
	"MedLegalChat/internal/config"
	"MedLegalChat/internal/session"
	"MedLegalChat/internal/telemetry"
	"MedLegalChat/internal/transcript"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrDisclaimerNotAccepted = errors.New("please accept the disclaimer to proceed")
	ErrEmptyMessage          = errors.New("message is empty")
	ErrUnsupportedFile       = errors.New("unsupported file type (allowed: pdf, txt, docx)")
	ErrUpload                = errors.New("file upload failed")
	ErrCompletion            = errors.New("completion failed")
)

// AllowedExtensions lists the document types the upload accepts
var AllowedExtensions = []string{".pdf", ".txt", ".docx"}

// ChatBot is the session controller. It holds no per-session state: every operation
// takes the session it acts on, and callers persist the session afterwards.
type ChatBot struct {
	config     config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	httpClient *http.Client
	audit      *telemetry.AuditLog
	uploads    cache.Uploads
	now        func() time.Time
}

// NewChatBot creates a new ChatBot instance. audit may be nil.
func NewChatBot(cfg config.Config, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter, audit *telemetry.AuditLog) *ChatBot {
	return &ChatBot{
		config:     cfg,
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		audit:      audit,
		now:        time.Now,
	}
}

// Config returns the configuration the bot was built with
func (cb *ChatBot) Config() config.Config {
	return cb.config
}

// AcceptDisclaimer opens the session for uploads and messages. Acceptance is permanent.
func (cb *ChatBot) AcceptDisclaimer(sess *session.Session) {
	if !sess.DisclaimerAccepted {
		cb.logger.Info("disclaimer accepted", "session_id", sess.ID)
	}
	sess.DisclaimerAccepted = true
}

// UploadFile sends a document to the external file store and makes it the session's pending
// attachment. On failure the session is left unchanged.
func (cb *ChatBot) UploadFile(ctx context.Context, sess *session.Session, name string, data []byte) (session.UploadedFileRef, error) {
	if !sess.DisclaimerAccepted {
		return session.UploadedFileRef{}, ErrDisclaimerNotAccepted
	}
	name = filepath.Base(name)
	if !allowedFile(name) {
		return session.UploadedFileRef{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if len(data) == 0 {
		return session.UploadedFileRef{}, fmt.Errorf("%w: %s is empty", ErrUpload, name)
	}

	cacheKey := cache.GenerateCacheKey(name, data)
	if ref, ok := cb.uploads.Load(cacheKey); ok {
		cb.logger.Info("reusing uploaded file", "session_id", sess.ID, "file_id", ref.ID, "name", name)
		sess.PendingFile = &ref
		return ref, nil
	}

	obj, err := cb.uploadFile(ctx, name, data)
	if err != nil {
		cb.logger.Error("file upload failed", "session_id", sess.ID, "name", name, "error", err)
		return session.UploadedFileRef{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	ref := session.UploadedFileRef{ID: obj.ID, Name: name}
	cb.uploads.Store(cacheKey, ref)
	sess.PendingFile = &ref
	cb.logger.Info("file uploaded", "session_id", sess.ID, "file_id", ref.ID, "name", name, "bytes", len(data))
	return ref, nil
}

// SubmitMessage appends the user's turn, sends the system prompt plus the whole transcript to the
// completion API and appends the reply. file overrides the session's pending upload; either way the
// pending upload is consumed. On a failed call the user turn stays and no assistant turn is added.
func (cb *ChatBot) SubmitMessage(ctx context.Context, sess *session.Session, text string, file *session.UploadedFileRef) (string, error) {
	if !sess.DisclaimerAccepted {
		return "", ErrDisclaimerNotAccepted
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	pending := sess.TakePendingFile()
	if file == nil {
		file = pending
	}

	turn := session.Text(session.RoleUser, text)
	if file != nil {
		turn = session.WithFile(*file, text)
	}
	sess.Append(turn)

	reply, err := cb.callOpenAI(ctx, sess.ID, buildMessages(sess.Transcript))
	if err != nil {
		cb.logger.Error("failed to send message", "session_id", sess.ID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	sess.Append(session.Text(session.RoleAssistant, reply))
	cb.logger.Info("exchange complete", "session_id", sess.ID, "turns", len(sess.Transcript))
	return reply, nil
}

// SaveTranscript writes the session's transcript to the save directory and returns the file path
func (cb *ChatBot) SaveTranscript(sess *session.Session) (string, error) {
	path, err := transcript.Save(cb.config.SaveDir, sess.History(), cb.now())
	if err != nil {
		return "", err
	}
	cb.logger.Info("transcript saved", "session_id", sess.ID, "path", path, "turns", len(sess.Transcript))
	return path, nil
}

// buildMessages prepends the system prompt to the transcript in request order
func buildMessages(history []session.Turn) []backend.ChatMessage {
	messages := make([]backend.ChatMessage, 0, len(history)+1)
	messages = append(messages, backend.ChatMessage{
		Role:    string(session.RoleSystem),
		Content: config.SystemPrompt,
	})
	for _, t := range history {
		messages = append(messages, backend.ChatMessage{
			Role:    string(t.Role),
			Content: t.Parts(false),
		})
	}
	return messages
}

func allowedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
