package digest

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/observability"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Digest is the rendered lesson text headed for the learner.
type Digest struct {
	LessonID string
	Text     string
}

type Email struct {
	To      string
	Subject string
	HTML    string
}

// TransportResult is the structured outcome of one dispatch.
type TransportResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r TransportResult) OK() bool { return r.Status == StatusSuccess }

// Transport dispatches one email. Failures are reported in the result.
type Transport interface {
	Send(ctx context.Context, e Email) TransportResult
}

type EmailOutcome struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	Subject         string `json:"subject,omitempty"`
	FallbackSubject bool   `json:"fallback_subject,omitempty"`
	FallbackHTML    bool   `json:"fallback_html,omitempty"`
}

func (o EmailOutcome) OK() bool { return o.Status == StatusSuccess }

// Emailer writes a subject, converts the digest to HTML and dispatches it to
// the fixed recipient. Dispatch is attempted once.
type Emailer struct {
	log       *logger.Logger
	provider  agent.Provider
	reg       *prompts.Registry
	transport Transport
	recipient string
}

func NewEmailer(log *logger.Logger, provider agent.Provider, reg *prompts.Registry, transport Transport, recipient string) *Emailer {
	return &Emailer{
		log:       log.With("service", "Emailer"),
		provider:  provider,
		reg:       reg,
		transport: transport,
		recipient: strings.TrimSpace(recipient),
	}
}

func (e *Emailer) Send(ctx context.Context, d Digest) EmailOutcome {
	var out EmailOutcome

	subject, err := e.subject(ctx, d)
	if err != nil {
		e.log.Warn("subject generation failed; using fallback", "lesson_id", d.LessonID, "error", err)
		subject = FallbackSubject(d.LessonID)
		out.FallbackSubject = true
	}
	out.Subject = subject

	body, err := e.html(ctx, d)
	if err != nil {
		e.log.Warn("html conversion failed; using fallback", "lesson_id", d.LessonID, "error", err)
		body = FallbackHTML(d.Text)
		out.FallbackHTML = true
	}

	if err := ctx.Err(); err != nil {
		out.Status = StatusError
		out.Message = fmt.Sprintf("email not sent: %v", err)
		return out
	}

	sctx, span := observability.StartSpan(ctx, "digest.send_email", attribute.String("lesson_id", d.LessonID))
	res := e.transport.Send(sctx, Email{To: e.recipient, Subject: subject, HTML: body})
	var spanErr error
	if !res.OK() {
		spanErr = fmt.Errorf("%s", res.Message)
	}
	observability.EndSpan(span, spanErr)

	out.Status = res.Status
	out.Message = res.Message
	if out.Status != StatusSuccess {
		out.Status = StatusError
		e.log.Error("digest email failed", "lesson_id", d.LessonID, "recipient", e.recipient, "message", res.Message)
		return out
	}
	e.log.Info("digest email sent", "lesson_id", d.LessonID, "recipient", e.recipient, "subject", subject)
	return out
}

func (e *Emailer) subject(ctx context.Context, d Digest) (string, error) {
	p, err := e.reg.Build(prompts.PromptSubjectWriter, prompts.Input{LessonID: d.LessonID, Digest: d.Text})
	if err != nil {
		return "", err
	}
	text, err := agent.Text(ctx, e.provider, p)
	if err != nil {
		return "", err
	}
	return CleanSubject(text), nil
}

func (e *Emailer) html(ctx context.Context, d Digest) (string, error) {
	p, err := e.reg.Build(prompts.PromptHTMLConverter, prompts.Input{LessonID: d.LessonID, Digest: d.Text})
	if err != nil {
		return "", err
	}
	text, err := agent.Text(ctx, e.provider, p)
	if err != nil {
		return "", err
	}
	return StripFences(text), nil
}

func FallbackSubject(lessonID string) string {
	return "Korean Learning Lesson " + lessonID
}

func FallbackHTML(text string) string {
	return "<!DOCTYPE html><html><body><pre style=\"font-family: sans-serif; white-space: pre-wrap;\">" +
		html.EscapeString(text) + "</pre></body></html>"
}

// CleanSubject keeps the first non-blank line; headers cannot span lines.
func CleanSubject(s string) string {
	for _, ln := range strings.Split(s, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			return ln
		}
	}
	return strings.TrimSpace(s)
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
