package web

import (
	"html/template"
	"net/http"
	"strings"

	"MedLegalChat/internal/chatbot"
	"MedLegalChat/internal/session"
)

const (
	pageTitle       = "Medical-Legal Assistant for Doctors in India"
	pageDescription = "This chatbot provides legal guidance to doctors in India to help avoid legal troubles.  \n" +
		"Upload files (e.g., consent forms, legal notices) for analysis, and get advice with references to Indian laws and guidelines.  \n" +
		"**Note**: This is for informational purposes only, not legal advice. Always consult a qualified legal professional."
	disclaimerLabel = "I understand this is not legal advice and will consult a professional for specific cases."
	chatPlaceholder = "Enter your medical-legal query (e.g., 'Is written consent needed for surgery?')"
	dateLayout      = "January 02, 2006"
)

const keyLaws = `- **Indian Medical Council Act, 1956**: Governs medical practice and ethics (MCI Regulations, 2002).
- **Consumer Protection Act, 2019**: Addresses negligence and deficiency in service.
- **Clinical Establishments Act, 2010**: Mandates consent and record-keeping.
- **NDPS Act, 1985**: Regulates controlled substances.
- **IT Act, 2000**: Protects patient data privacy.
- **Landmark Cases**: *Samira Kohli (2008)* - Consent; *Jacob Mathew (2005)* - Negligence.
`

// pageView carries per-request state that is not part of the session
type pageView struct {
	Notice    string
	Error     string
	SavedPath string
}

type turnView struct {
	Role string
	File string
	Body template.HTML
}

type pageData struct {
	Title              string
	Description        template.HTML
	Laws               template.HTML
	DisclaimerLabel    string
	DisclaimerAccepted bool
	Turns              []turnView
	PendingFile        string
	Placeholder        string
	Accept             string
	Notice             string
	Error              string
	SavedPath          string
	CurrentDate        string
}

func (s *Server) render(w http.ResponseWriter, sess *session.Session, v *pageView) {
	data := pageData{
		Title:              pageTitle,
		Description:        renderMarkdown(pageDescription),
		Laws:               renderMarkdown(keyLaws),
		DisclaimerLabel:    disclaimerLabel,
		DisclaimerAccepted: sess.DisclaimerAccepted,
		Placeholder:        chatPlaceholder,
		Accept:             strings.Join(chatbot.AllowedExtensions, ","),
		Notice:             v.Notice,
		Error:              v.Error,
		SavedPath:          v.SavedPath,
		CurrentDate:        s.now().Format(dateLayout),
	}
	if sess.PendingFile != nil {
		data.PendingFile = sess.PendingFile.Name
	}
	for _, t := range sess.Transcript {
		tv := turnView{Role: string(t.Role), Body: renderMarkdown(t.Content.PlainText())}
		if c, ok := t.Content.(session.FileAndTextContent); ok {
			tv.File = c.File.Name
		}
		data.Turns = append(data.Turns, tv)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "session_id", sess.ID, "error", err)
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; min-height: 100vh; }
aside { width: 280px; background: #f0f2f6; padding: 1.5rem; }
main { flex: 1; padding: 1.5rem 3rem; max-width: 60rem; }
.msg { padding: .75rem 1rem; margin: .5rem 0; border-radius: .5rem; }
.msg.user { background: #eef4ff; }
.msg.assistant { background: #f7f7f7; }
.role { font-weight: bold; font-size: .85rem; text-transform: capitalize; }
.attachment { font-size: .85rem; color: #555; }
.notice { background: #e6f4ea; padding: .75rem; border-radius: .5rem; }
.error { background: #fdecea; padding: .75rem; border-radius: .5rem; }
.warning { background: #fff8e1; padding: .75rem; border-radius: .5rem; }
textarea { width: 100%; min-height: 4rem; }
footer { margin-top: 2rem; color: #777; font-size: .85rem; }
</style>
</head>
<body>
<aside>
<h3>Key Indian Medical Laws</h3>
{{.Laws}}
</aside>
<main>
<h1>{{.Title}}</h1>
<div class="description">{{.Description}}</div>
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if not .DisclaimerAccepted}}
<p class="warning">Please accept the disclaimer to proceed.</p>
<form method="post" action="/disclaimer">
<label><input type="checkbox" name="accept" value="yes" onchange="this.form.submit()"> {{.DisclaimerLabel}}</label>
<noscript><button type="submit">Continue</button></noscript>
</form>
{{else}}
<section id="history">
{{range .Turns}}<div class="msg {{.Role}}">
<div class="role">{{.Role}}</div>
{{if .File}}<div class="attachment">Attached: {{.File}}</div>{{end}}
{{.Body}}
</div>
{{end}}</section>
<form method="post" action="/upload" enctype="multipart/form-data">
<label>Upload a document (PDF, TXT, DOCX) <input type="file" name="file" accept="{{.Accept}}"></label>
<button type="submit">Upload</button>
</form>
{{if .PendingFile}}<p class="attachment">Attached to your next message: {{.PendingFile}}</p>{{end}}
<form method="post" action="/chat">
<textarea name="message" placeholder="{{.Placeholder}}"></textarea>
<button type="submit">Send</button>
</form>
<form method="post" action="/save">
<button type="submit">Save Chat</button>
{{if .SavedPath}}<span class="attachment">{{.SavedPath}}</span>{{end}}
</form>
{{end}}
<footer>Current date: {{.CurrentDate}}</footer>
</main>
</body>
</html>
`))
