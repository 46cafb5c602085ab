package loader

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContainerRoundTrip(t *testing.T) {
	jsonData := []byte(`{"asset":{"version":"2.0"}}`)
	bin := []byte{1, 2, 3, 4, 5}

	data := EncodeContainer(jsonData, bin)
	require.Zero(t, len(data)%4)

	c, err := ParseContainer(data, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(glbMagic), c.Header.Magic)
	assert.Equal(t, uint32(2), c.Header.Version)
	assert.Equal(t, uint32(len(data)), c.Header.Length)
	assert.Equal(t, len(jsonData)+1, len(c.JSON), "JSON padded with one space")
	assert.Equal(t, byte(' '), c.JSON[len(c.JSON)-1])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, c.BIN)
	assert.Zero(t, c.Skipped)
}

func TestParseContainerWithoutBIN(t *testing.T) {
	c, err := ParseContainer(EncodeContainer([]byte(`{}`), nil), true)
	require.NoError(t, err)
	assert.Nil(t, c.BIN)
}

func TestParseContainerErrors(t *testing.T) {
	valid := EncodeContainer([]byte(`{"asset":{"version":"2.0"}}`), []byte{0, 0, 0, 0})

	withU32 := func(offset int, v uint32) []byte {
		data := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(data[offset:], v)
		return data
	}

	tests := []struct {
		name   string
		data   []byte
		strict bool
		want   error
	}{
		{"empty", nil, false, ErrMalformedContainer},
		{"bad magic", withU32(0, 0x12345678), false, ErrMalformedContainer},
		{"short header", valid[:8], false, ErrMalformedContainer},
		{"version 1", withU32(4, 1), false, ErrUnsupportedVersion},
		{"version 1 is malformed", withU32(4, 1), false, ErrMalformedContainer},
		{"strict length mismatch", withU32(8, uint32(len(valid)+4)), true, ErrMalformedContainer},
		{"misaligned chunk", withU32(12, 30), false, ErrMalformedChunk},
		{"chunk past end", withU32(12, 4096), false, ErrMalformedChunk},
		{"truncated chunk header", append(append([]byte(nil), valid...), 1, 2, 3, 4), false, ErrMalformedChunk},
		{"missing JSON", withU32(16, 0x41414141), false, ErrMissingChunk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContainer(tt.data, tt.strict)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseContainerLenientLength(t *testing.T) {
	data := EncodeContainer([]byte(`{}`), nil)
	binary.LittleEndian.PutUint32(data[8:], 9999)

	_, err := ParseContainer(data, false)
	assert.NoError(t, err)
}

func TestParseContainerBadMagicCheckedFirst(t *testing.T) {
	_, err := ParseContainer([]byte("abc"), false)
	require.ErrorIs(t, err, ErrMalformedContainer)
	assert.Contains(t, err.Error(), "magic")
}

func TestParseContainerSkipsUnknownChunks(t *testing.T) {
	data := EncodeContainer([]byte(`{}`), nil)
	extra := make([]byte, 12)
	binary.LittleEndian.PutUint32(extra[0:], 4)
	binary.LittleEndian.PutUint32(extra[4:], 0x54534554)
	data = append(data, extra...)
	binary.LittleEndian.PutUint32(data[8:], uint32(len(data)))

	c, err := ParseContainer(data, true)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Skipped)
}
