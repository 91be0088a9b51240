package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"MedLegalChat/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.render(w, sess, &pageView{})
}

func (s *Server) handleDisclaimer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	v := &pageView{}
	if r.FormValue("accept") != "" {
		s.bot.AcceptDisclaimer(sess)
		sess = s.saveSession(r.Context(), sess, v)
	}
	s.render(w, sess, v)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	v := &pageView{}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		v.Error = fmt.Sprintf("An error occurred: failed to read upload: %v", err)
		s.render(w, sess, v)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		v.Error = fmt.Sprintf("An error occurred: failed to read upload: %v", err)
		s.render(w, sess, v)
		return
	}

	ref, err := s.bot.UploadFile(r.Context(), sess, header.Filename, data)
	if err != nil {
		v.Error = "An error occurred: " + err.Error()
		s.render(w, sess, v)
		return
	}

	v.Notice = "File uploaded successfully: " + ref.Name
	sess = s.saveSession(r.Context(), sess, v)
	s.render(w, sess, v)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	v := &pageView{}
	before := len(sess.Transcript)
	_, err = s.bot.SubmitMessage(r.Context(), sess, r.FormValue("message"), nil)
	if err != nil {
		v.Error = "An error occurred: " + err.Error()
	}
	// a failed completion still leaves the user turn (and consumes the attachment)
	if len(sess.Transcript) != before {
		sess = s.saveSession(r.Context(), sess, v)
	}
	s.render(w, sess, v)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	v := &pageView{}
	if path, err := s.bot.SaveTranscript(sess); err != nil {
		v.Error = "An error occurred: " + err.Error()
	} else {
		v.Notice = "Chat saved successfully!"
		v.SavedPath = path
	}
	s.render(w, sess, v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.bot.Config()
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	health := map[string]interface{}{
		"status": "healthy",
		"model":  cfg.Model,
		"store":  cfg.Store,
		"checks": checks,
	}
	if status != http.StatusOK {
		health["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(health)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	msg := "Internal server error"
	if errors.Is(err, session.ErrVersionConflict) {
		msg = "Session conflict, please retry"
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
