package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, "version: "+Version)
	assert.Contains(t, s, "commit: "+Commit)
}

func TestTemplate(t *testing.T) {
	assert.Contains(t, Template(), "{{.Name}} version "+Version)
}
