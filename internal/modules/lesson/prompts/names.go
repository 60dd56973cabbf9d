package prompts

type PromptName string

const (
	// Content generation
	PromptArticleTutor      PromptName = "article_tutor"
	PromptConversationTutor PromptName = "conversation_tutor"

	// Persistence
	PromptItemSelection PromptName = "item_selection"

	// Delivery
	PromptSubjectWriter PromptName = "subject_writer"
	PromptHTMLConverter PromptName = "html_converter"
)

// Names lists every prompt the persona catalogue must define.
var Names = []PromptName{
	PromptArticleTutor,
	PromptConversationTutor,
	PromptItemSelection,
	PromptSubjectWriter,
	PromptHTMLConverter,
}
