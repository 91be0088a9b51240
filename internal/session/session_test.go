package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	s := New()

	assert.NotEmpty(t, s.ID)
	assert.False(t, s.DisclaimerAccepted)
	assert.Empty(t, s.Transcript)
	assert.Nil(t, s.PendingFile)
	assert.NotEqual(t, s.ID, New().ID)
}

func TestTurnJSON_Text(t *testing.T) {
	turn := Text(RoleUser, "Is written consent needed for surgery?")

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"Is written consent needed for surgery?"}`, string(data))

	var got Turn
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, turn, got)
}

func TestTurnJSON_FileAndText(t *testing.T) {
	turn := WithFile(UploadedFileRef{ID: "file-abc", Name: "consent.pdf"}, "Is this form compliant?")

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"role": "user",
		"content": [
			{"type": "file", "file": {"file_id": "file-abc", "filename": "consent.pdf"}},
			{"type": "text", "text": "Is this form compliant?"}
		]
	}`, string(data))

	var got Turn
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, turn, got)
}

func TestTurnJSON_DecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Content
	}{
		{"null content", `{"role":"assistant","content":null}`, TextContent{}},
		{"text parts only", `{"role":"user","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`, TextContent{Text: "a\nb"}},
		{"file without name", `{"role":"user","content":[{"type":"file","file":{"file_id":"f1"}},{"type":"text","text":"q"}]}`,
			FileAndTextContent{File: UploadedFileRef{ID: "f1"}, Text: "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Turn
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got.Content)
		})
	}
}

func TestTurnJSON_DecodeErrors(t *testing.T) {
	for _, in := range []string{
		`{"role":"user","content":[{"type":"image_url"}]}`,
		`{"role":"user","content":[{"type":"file"}]}`,
		`{"role":"user","content":[{"type":"file","file":{"file_id":"a"}},{"type":"file","file":{"file_id":"b"}}]}`,
		`{"role":"user","content":42}`,
	} {
		var got Turn
		assert.Error(t, json.Unmarshal([]byte(in), &got), in)
	}
}

func TestTurnParts_OmitsNamesOnRequest(t *testing.T) {
	turn := WithFile(UploadedFileRef{ID: "file-abc", Name: "consent.pdf"}, "check")

	data, err := json.Marshal(turn.Parts(false))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"file","file":{"file_id":"file-abc"}},{"type":"text","text":"check"}]`, string(data))
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s := New()
	s.DisclaimerAccepted = true
	s.Append(Text(RoleUser, "q1"))
	s.Append(Text(RoleAssistant, "a1"))
	s.Append(WithFile(UploadedFileRef{ID: "f", Name: "n.txt"}, "q2"))
	s.PendingFile = &UploadedFileRef{ID: "g", Name: "next.docx"}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got Session
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.ID, got.ID)
	assert.True(t, got.DisclaimerAccepted)
	assert.Equal(t, s.Transcript, got.Transcript)
	assert.Equal(t, s.PendingFile, got.PendingFile)
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Append(Text(RoleUser, "q1"))
	s.PendingFile = &UploadedFileRef{ID: "f"}

	c := s.Clone()
	c.Append(Text(RoleAssistant, "a1"))
	c.PendingFile.ID = "changed"

	assert.Len(t, s.Transcript, 1)
	assert.Equal(t, "f", s.PendingFile.ID)
}

func TestTakePendingFile(t *testing.T) {
	s := New()
	assert.Nil(t, s.TakePendingFile())

	s.PendingFile = &UploadedFileRef{ID: "f", Name: "a.pdf"}
	ref := s.TakePendingFile()
	require.NotNil(t, ref)
	assert.Equal(t, "f", ref.ID)
	assert.Nil(t, s.PendingFile)
}
