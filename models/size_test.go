package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		0:                "0 B",
		1:                "1.0 B",
		200:              "200.0 B",
		1023:             "1023.0 B",
		1024:             "1.0 KB",
		1536:             "1.5 KB",
		100 * 1024:       "100.0 KB",
		2 * 1024 * 1024:  "2.0 MB",
		10 * 1024 * 1024: "10.0 MB",
		3 << 30:          "3.0 GB",
		5 << 40:          "5.0 TB",
		2048 << 40:       "2048.0 TB",
	}
	for size, want := range cases {
		assert.Equal(t, want, FormatSize(size), size)
	}
}

func TestErrorKind_JSON(t *testing.T) {
	b, err := ErrorKindNone.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = ErrorKindUnsafePath.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"UnsafePath"`, string(b))

	var k ErrorKind
	assert.NoError(t, k.UnmarshalJSON([]byte(`"CorruptArchive"`)))
	assert.Equal(t, ErrorKindCorruptArchive, k)
	assert.NoError(t, k.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, ErrorKindNone, k)
}
