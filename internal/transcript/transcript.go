// Package transcript reads and writes saved conversations.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MedLegalChat/internal/session"
)

const (
	// TimestampLayout formats the timestamp stored inside a saved file
	TimestampLayout = "2006-01-02 15:04:05"
	// fileLayout formats the timestamp in a saved file's name
	fileLayout = "20060102_150405"
)

// File is the on-disk form of a saved conversation
type File struct {
	Timestamp string         `json:"timestamp"`
	History   []session.Turn `json:"history"`
}

// FileName returns the name a conversation saved at t is written to
func FileName(t time.Time) string {
	return fmt.Sprintf("chat_history_%s.json", t.Format(fileLayout))
}

// Save writes history to dir under a name derived from now and returns the full path.
// Two saves within the same second write the same file; the later one wins.
func Save(dir string, history []session.Turn, now time.Time) (string, error) {
	if history == nil {
		history = []session.Turn{}
	}
	data, err := json.MarshalIndent(File{
		Timestamp: now.Format(TimestampLayout),
		History:   history,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}

// Load reads a file written by Save
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript %s: %w", path, err)
	}
	return &f, nil
}
