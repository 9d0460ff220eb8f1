package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURI(t *testing.T) {
	img, err := ParseDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("hello"), img.Data)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", img.DataURI())
}

func TestParseDataURI_Invalid(t *testing.T) {
	cases := map[string]string{
		"no prefix":    "image/png;base64,aGVsbG8=",
		"no payload":   "data:image/png;base64",
		"not base64":   "data:image/png,aGVsbG8=",
		"empty mime":   "data:;base64,aGVsbG8=",
		"bad encoding": "data:image/png;base64,***",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURI(uri)
			assert.ErrorIs(t, err, ErrInvalidDataURI)
		})
	}
}
