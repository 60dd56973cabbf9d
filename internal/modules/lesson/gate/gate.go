package gate

import "strings"

const (
	markerLessonID     = "lesson_id"
	markerLessonPrefix = "lesson_"
	markerArticle      = "article_content"
	markerConversation = "conversation_content"

	errNoLesson = "LessonPlan not found in handoff context"
)

// Result is the gate decision plus diagnostics.
type Result struct {
	Proceed bool           `json:"proceed"`
	Info    map[string]any `json:"info,omitempty"`
}

// Check is a case-insensitive structural presence check on the handoff
// payload: an identifier marker and at least one content-section marker.
// It does not validate field contents.
func Check(payload string) Result {
	s := strings.ToLower(payload)
	hasID := strings.Contains(s, markerLessonID) || strings.Contains(s, markerLessonPrefix)
	hasContent := strings.Contains(s, markerArticle) || strings.Contains(s, markerConversation)
	if hasID && hasContent {
		return Result{Proceed: true}
	}
	return Result{
		Proceed: false,
		Info: map[string]any{
			"error":         errNoLesson,
			"has_lesson_id": hasID,
			"has_content":   hasContent,
			"payload_bytes": len(payload),
		},
	}
}

// Message renders the diagnostic as a one-line error message.
func (r Result) Message() string {
	if r.Proceed {
		return ""
	}
	msg, _ := r.Info["error"].(string)
	if msg == "" {
		msg = errNoLesson
	}
	return msg
}
