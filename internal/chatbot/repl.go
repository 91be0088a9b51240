package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"MedLegalChat/internal/session"
)

const disclaimerText = "I understand this is not legal advice and will consult a professional for specific cases."

// Run starts an interactive terminal chat on a fresh session
func (cb *ChatBot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := session.New()
	cb.logger.Info("created new session", "session_id", sess.ID, "mode", "terminal")

	fmt.Fprintln(out, "=== Medical-Legal Assistant for Doctors in India ===")
	fmt.Fprintln(out, "Note: This is for informational purposes only, not legal advice. Always consult a qualified legal professional.")
	fmt.Fprintf(out, "Session: %s\n", sess.ID)
	fmt.Fprintln(out, "Please accept the disclaimer to proceed: type /accept to confirm:")
	fmt.Fprintf(out, "  %q\n", disclaimerText)
	fmt.Fprintln(out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, scanErr := scanLines(ctx, in)

loop:
	for ctx.Err() == nil {
		fmt.Fprint(out, "You: ")

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			break loop
		case line, ok = <-lines:
		}
		if !ok {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, sess, input, out)
			if err != nil {
				fmt.Fprintf(out, "An error occurred: %v\n", err)
				cb.logger.Error("command error", "session_id", sess.ID, "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		response, err := cb.SubmitMessage(ctx, sess, line, nil)
		if err != nil {
			fmt.Fprintf(out, "An error occurred: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "Bot: %s\n\n", response)
	}
	if ctx.Err() != nil {
		fmt.Fprintln(out)
		cb.logger.Info("terminal session interrupted", "session_id", sess.ID)
	}

	select {
	case err := <-scanErr:
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	default:
	}

	fmt.Fprintln(out, "Goodbye!")
	return nil
}

// scanLines feeds input lines to a channel so the caller can stop waiting when ctx ends.
// The channel closes at end of input; a read error, if any, is sent on the second channel first.
func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	return lines, scanErr
}

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(ctx context.Context, sess *session.Session, cmd string, out io.Writer) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/accept":
		cb.AcceptDisclaimer(sess)
		fmt.Fprintln(out, "Disclaimer accepted.")
		return false, nil

	case "/upload":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /upload <path to pdf|txt|docx>")
		}
		path := strings.Join(parts[1:], " ")
		data, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", path, err)
		}
		ref, err := cb.UploadFile(ctx, sess, path, data)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "File uploaded successfully: %s\n", ref.Name)
		return false, nil

	case "/save":
		path, err := cb.SaveTranscript(sess)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Chat saved successfully! (%s)\n", path)
		return false, nil

	case "/help":
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  /accept          - Accept the disclaimer")
		fmt.Fprintln(out, "  /upload <path>   - Attach a consent form or legal notice (pdf, txt, docx) to the next message")
		fmt.Fprintln(out, "  /save            - Save the conversation to a JSON file")
		fmt.Fprintln(out, "  /quit, /exit     - Exit")
		fmt.Fprintln(out, "  /help            - Show this help message")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help)", parts[0])
	}
}
