package promptstyle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySystemIsIdempotent(t *testing.T) {
	once := ApplySystem("You are a tutor.", "json")
	twice := ApplySystem(once, "json")

	assert.Equal(t, once, twice)
	assert.True(t, strings.HasPrefix(once, marker))
	assert.Contains(t, once, "conforms to the schema")
	assert.True(t, strings.HasSuffix(once, "You are a tutor."))
}

func TestApplySystemEmpty(t *testing.T) {
	assert.Equal(t, "", ApplySystem("   ", "text"))
}
