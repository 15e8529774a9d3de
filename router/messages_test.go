package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ineiti/fledger-sub003/codec"
)

type testBody struct {
	Value int `json:"value"`
}

func TestWrapUnwrap(t *testing.T) {
	c := codec.NewJSONCodec()

	w, err := WrapModule(c, "stats", testBody{Value: 7})
	require.NoError(t, err)
	assert.Equal(t, "stats", w.Module)

	var body testBody
	ok, err := w.Unwrap(c, "stats", &body)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, body.Value)
}

func TestUnwrapOtherModule(t *testing.T) {
	c := codec.NewJSONCodec()

	w, err := WrapModule(c, "stats", testBody{Value: 7})
	require.NoError(t, err)

	// an envelope of another module is not an error, it is just not ours
	var body testBody
	ok, err := w.Unwrap(c, "chat", &body)
	require.NoError(t, err)
	assert.False(t, ok)
}
