package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`hello <script>alert(1)</script>world`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestSanitizeKeepsPlainText(t *testing.T) {
	assert.Equal(t, "ordinary question about chapter 3", Sanitize("ordinary question about chapter 3"))
}
