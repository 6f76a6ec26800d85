package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFramesSingle(t *testing.T) {
	frames := ExtractFrames("$00007$")
	require.Len(t, frames, 1)
	assert.Equal(t, "00007", frames[0])
}

func TestExtractFramesMultiplePerRead(t *testing.T) {
	buf := "$00001alice               $$00002devs                alice               $"
	frames := ExtractFrames(buf)
	require.Len(t, frames, 2)
	assert.Equal(t, "00001alice               ", frames[0])
	assert.Equal(t, "00002devs                alice               ", frames[1])
}

func TestExtractFramesDiscardsPartial(t *testing.T) {
	frames := ExtractFrames("$00007$$00001ali")
	require.Len(t, frames, 1)
	assert.Equal(t, "00007", frames[0])
}

func TestExtractFramesDiscardsLeadingNoise(t *testing.T) {
	frames := ExtractFrames("ce$$00007$")
	require.Len(t, frames, 2)
	assert.Equal(t, "ce", frames[0])
	assert.Equal(t, "00007", frames[1])
}

func TestExtractFramesEmpty(t *testing.T) {
	assert.Nil(t, ExtractFrames(""))
	assert.Nil(t, ExtractFrames("$$"))
	assert.Nil(t, ExtractFrames("no frames here"))
}

func TestPadName(t *testing.T) {
	padded, err := PadName("alice")
	require.NoError(t, err)
	assert.Len(t, padded, NameLength)
	assert.Equal(t, "alice", TrimName(padded))
}

func TestPadNameExactWidth(t *testing.T) {
	name := strings.Repeat("a", NameLength)
	padded, err := PadName(name)
	require.NoError(t, err)
	assert.Equal(t, name, padded)
}

func TestPadNameTooLong(t *testing.T) {
	_, err := PadName(strings.Repeat("a", NameLength+1))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestValidName(t *testing.T) {
	padded, _ := PadName("alice")
	assert.True(t, ValidName(padded))
	assert.False(t, ValidName("alice"), "unpadded names are invalid")
	assert.False(t, ValidName(strings.Repeat("a", NameLength+1)))
}

func TestValidNameRejectsDelimiters(t *testing.T) {
	for _, c := range []string{"$", "#", "&"} {
		name, _ := PadName("bad" + c + "name")
		assert.False(t, ValidName(name), "name containing %q should be invalid", c)
	}
}
