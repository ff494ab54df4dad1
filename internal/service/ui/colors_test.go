package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLine(t *testing.T) {
	ok := StatusLine("redis", true, "localhost:6379")
	assert.Contains(t, ok, "redis")
	assert.Contains(t, ok, "ok")
	assert.Contains(t, ok, "localhost:6379")

	fail := StatusLine("llm", false, "")
	assert.Contains(t, fail, "fail")
	assert.NotContains(t, fail, "ok")
}
