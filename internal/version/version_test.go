package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	v, c, d := Info()

	assert.NotEmpty(t, v)
	assert.NotEmpty(t, c)
	assert.NotEmpty(t, d)
	assert.Equal(t, v, GetVersion())
	assert.Equal(t, c, GetCommit())
	assert.Equal(t, d, GetDate())
}

func TestString(t *testing.T) {
	s := String()

	assert.Contains(t, s, "version=")
	assert.Contains(t, s, "commit=")
	assert.Contains(t, s, "date=")
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "quadrental-"+GetVersion(), ClientID())
}
