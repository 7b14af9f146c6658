package server_test

import (
	"errors"
	"testing"

	"lintang/floodnav/pkg/server"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("dial tcp: timeout")
	err := server.WrapErrorf(orig, server.ErrNotReady, "segment store %s", "empty")

	var serr *server.Error
	assert.True(t, errors.As(err, &serr))
	assert.Equal(t, server.ErrNotReady, serr.Code())
	assert.Equal(t, "segment store empty", serr.Message())
	assert.True(t, errors.Is(err, orig))
	assert.Equal(t, "segment store empty: dial tcp: timeout", err.Error())

	assert.Equal(t, "no orig", server.WrapErrorf(nil, server.ErrNotFound, "no orig").Error())
}
