package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	mediaType, data, err := DecodeDataURI("data:image/png;base64,iVBORw0KGgo=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data)
}

func TestDecodeDataURI_Unpadded(t *testing.T) {
	_, data, err := DecodeDataURI("DATA:image/gif;base64,R0lGODlh")
	require.NoError(t, err)
	assert.Equal(t, []byte("GIF89a"), data)
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	for _, in := range []string{
		"https://cdn.example.com/a.png",
		"data:image/png;base64",
		"data:image/png,rawtext",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	} {
		_, _, err := DecodeDataURI(in)
		assert.ErrorIs(t, err, ErrInvalidDataURI, in)
	}
}

func TestIsDataURI(t *testing.T) {
	assert.True(t, IsDataURI("data:image/png;base64,AAAA"))
	assert.False(t, IsDataURI("https://x/y.png"))
	assert.False(t, IsDataURI("data:"))
}
