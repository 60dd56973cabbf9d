package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

func TestCheck(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		proceed bool
	}{
		{"id and article", "...lesson_20250101_120000... article_content ...", true},
		{"id key and conversation", `{"lesson_id":"x","conversation_content":{}}`, true},
		{"case insensitive", "LESSON_ID ARTICLE_CONTENT", true},
		{"unrelated", "random unrelated text", false},
		{"empty", "", false},
		{"id only", "lesson_20250101_120000", false},
		{"content only", "article_content conversation_content", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Check(tc.payload)
			assert.Equal(t, tc.proceed, r.Proceed)
			if tc.proceed {
				assert.Nil(t, r.Info)
				assert.Empty(t, r.Message())
				return
			}
			assert.Equal(t, errNoLesson, r.Info["error"])
			assert.Equal(t, len(tc.payload), r.Info["payload_bytes"])
			assert.NotEmpty(t, r.Message())
		})
	}
}

func TestCheckDiagnostics(t *testing.T) {
	r := Check("lesson_1 only")
	assert.Equal(t, true, r.Info["has_lesson_id"])
	assert.Equal(t, false, r.Info["has_content"])
}

func TestCheckAcceptsSerializedLesson(t *testing.T) {
	b, err := lesson.Lesson{LessonID: "lesson_20250101_120000"}.Marshal()
	assert.NoError(t, err)
	assert.True(t, Check(string(b)).Proceed)
}
