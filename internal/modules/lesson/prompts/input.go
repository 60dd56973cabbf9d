package prompts

// Input is a superset of all fields any persona template might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	CurrentDate string
	LessonID    string
	// Flattened lesson text handed to the persistence persona
	TaskText string
	MaxItems int
	// Rendered digest for the delivery personas
	Digest string
}
