package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "a", Coalesce("", "a", "b"))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, 3, Coalesce(0, 3))
}

func TestAlign4(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 4, 4: 4, 5: 8, 7: 8, 8: 8} {
		assert.Equal(t, want, Align4(n), "Align4(%d)", n)
	}
}

func TestPadTo4(t *testing.T) {
	aligned := []byte{1, 2, 3, 4}
	assert.Equal(t, aligned, PadTo4(aligned, 0))

	assert.Equal(t, []byte("{}  "), PadTo4([]byte("{} "), ' '))
	assert.Equal(t, []byte{9, 0, 0, 0}, PadTo4([]byte{9}, 0))
}
