package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"MedLegalChat/internal/backend"
	"MedLegalChat/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// callOpenAI calls the chat completions API and returns the first choice's text
func (cb *ChatBot) callOpenAI(ctx context.Context, sessionID string, messages []backend.ChatMessage) (reply string, err error) {
	ctx, span := cb.tracer.Start(ctx, "openai_chat_completion",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("messages", len(messages)),
		),
	)
	defer span.End()

	start := time.Now()

	reqBody := backend.ChatCompletionRequest{
		Model:       cb.config.Model,
		Messages:    messages,
		Temperature: cb.config.Temperature,
		MaxTokens:   cb.config.MaxTokens,
	}

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		auditErr := cb.audit.Record(ctx, telemetry.Exchange{
			SessionID: sessionID,
			Timestamp: start,
			Model:     reqBody.Model,
			Request:   reqBody,
			Reply:     reply,
			Err:       err,
			Duration:  time.Since(start),
		})
		if auditErr != nil {
			cb.logger.Warn("failed to record exchange", "session_id", sessionID, "error", auditErr)
		}
	}()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cb.endpoint("/chat/completions"), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cb.config.APIKey)
	req.Header.Set("content-type", "application/json")

	body, err := cb.do(ctx, req, start)
	if err != nil {
		return "", err
	}

	var apiResp backend.ChatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	cb.recordMetrics(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	reply = strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("empty message content from OpenAI (finish_reason %q)", apiResp.Choices[0].FinishReason)
	}
	return reply, nil
}

// uploadFile sends a document to the files API with purpose user_data
func (cb *ChatBot) uploadFile(ctx context.Context, name string, data []byte) (*backend.FileObject, error) {
	ctx, span := cb.tracer.Start(ctx, "openai_file_upload",
		trace.WithAttributes(
			attribute.String("file.name", name),
			attribute.Int("file.bytes", len(data)),
		),
	)
	defer span.End()

	start := time.Now()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", backend.PurposeUserData); err != nil {
		return nil, fmt.Errorf("failed to write purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cb.endpoint("/files"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cb.config.APIKey)
	req.Header.Set("content-type", mw.FormDataContentType())

	body, err := cb.do(ctx, req, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var obj backend.FileObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("upload response carried no file id")
	}
	return &obj, nil
}

// do sends req and returns the body of a 2xx response, recording the request duration
func (cb *ChatBot) do(ctx context.Context, req *http.Request, start time.Time) ([]byte, error) {
	resp, err := cb.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	duration := time.Since(start)
	histogram, err := cb.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()),
			metric.WithAttributes(attribute.String("http.route", req.URL.Path)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, apiErrorMessage(body))
	}
	return body, nil
}

// recordMetrics records OpenTelemetry metrics from usage data
func (cb *ChatBot) recordMetrics(ctx context.Context, usage map[string]interface{}) {
	if usage == nil {
		return
	}

	for key, value := range usage {
		if intVal, ok := value.(float64); ok {
			counter, err := cb.meter.Int64Counter(
				fmt.Sprintf("llm.usage.%s", key),
				metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
			)
			if err != nil {
				cb.logger.Warn("failed to create counter", "key", key, "error", err)
				continue
			}
			counter.Add(ctx, int64(intVal))
		}
	}
}

func (cb *ChatBot) endpoint(path string) string {
	return strings.TrimRight(cb.config.BaseURL, "/") + path
}

// apiErrorMessage extracts error.message from an API error body, falling back to the raw body
func apiErrorMessage(body []byte) string {
	var apiErr backend.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}
