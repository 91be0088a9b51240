package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"MedLegalChat/internal/backend"
)

// Content is the body of a turn: TextContent or FileAndTextContent.
type Content interface {
	// PlainText returns the text typed by the user or returned by the model
	PlainText() string
	isContent()
}

// TextContent is a plain text body
type TextContent struct {
	Text string
}

func (c TextContent) PlainText() string { return c.Text }
func (TextContent) isContent()          {}

// FileAndTextContent pairs an uploaded document with the text that refers to it
type FileAndTextContent struct {
	File UploadedFileRef
	Text string
}

func (c FileAndTextContent) PlainText() string { return c.Text }
func (FileAndTextContent) isContent()          {}

// Text builds a text-only turn
func Text(role Role, text string) Turn {
	return Turn{Role: role, Content: TextContent{Text: text}}
}

// WithFile builds a user turn that carries a document reference
func WithFile(file UploadedFileRef, text string) Turn {
	return Turn{Role: RoleUser, Content: FileAndTextContent{File: file, Text: text}}
}

// Parts renders the content in chat-completion wire form: a string for text, a part list otherwise.
// includeNames controls whether the file name travels with the file ID.
func (t Turn) Parts(includeNames bool) interface{} {
	switch c := t.Content.(type) {
	case FileAndTextContent:
		file := &backend.FilePart{FileID: c.File.ID}
		if includeNames {
			file.Filename = c.File.Name
		}
		return []backend.ContentPart{
			{Type: backend.PartFile, File: file},
			{Type: backend.PartText, Text: c.Text},
		}
	case TextContent:
		return c.Text
	default:
		return ""
	}
}

type wireTurn struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the turn as {"role", "content"} with content in wire form
func (t Turn) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(t.Parts(true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn content: %w", err)
	}
	return json.Marshal(wireTurn{Role: t.Role, Content: content})
}

// UnmarshalJSON accepts content as a string or as a list of text/file parts
func (t *Turn) UnmarshalJSON(data []byte) error {
	var w wireTurn
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal turn: %w", err)
	}
	content, err := decodeContent(w.Content)
	if err != nil {
		return err
	}
	t.Role = w.Role
	t.Content = content
	return nil
}

func decodeContent(raw json.RawMessage) (Content, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return TextContent{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal text content: %w", err)
		}
		return TextContent{Text: s}, nil
	}

	var parts []backend.ContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content parts: %w", err)
	}

	var file *backend.FilePart
	var texts []string
	for _, p := range parts {
		switch p.Type {
		case backend.PartFile:
			if p.File == nil {
				return nil, fmt.Errorf("file part without file reference")
			}
			if file != nil {
				return nil, fmt.Errorf("content carries more than one file")
			}
			file = p.File
		case backend.PartText:
			texts = append(texts, p.Text)
		default:
			return nil, fmt.Errorf("unknown content part type: %s", p.Type)
		}
	}

	text := strings.Join(texts, "\n")
	if file == nil {
		return TextContent{Text: text}, nil
	}
	return FileAndTextContent{
		File: UploadedFileRef{ID: file.FileID, Name: file.Filename},
		Text: text,
	}, nil
}
