package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashIsStableAndSensitiveToContent(t *testing.T) {
	a := ContentHash("hello world")
	b := ContentHash("hello world")
	c := ContentHash("hello world!")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
