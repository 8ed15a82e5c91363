package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer abc.def")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = bearerToken("bearer  abc")
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = bearerToken("")
	assert.ErrorIs(t, err, errNoToken)
	for _, header := range []string{"abc", "Basic abc", "Bearer "} {
		_, err = bearerToken(header)
		assert.ErrorIs(t, err, errTokenFormat, header)
	}
}
