package wire

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NameLength is the fixed on-wire width of usernames and room names.
// Shorter names are space-padded on the client side before sending.
const NameLength = 20

// Command codes carried in the first five bytes of a request interior.
const (
	CmdRegister       = "00001"
	CmdJoin           = "00002"
	CmdRoomMessage    = "00003"
	CmdPrivateMessage = "00004"
	CmdLeave          = "00005"
	CmdListRoomUsers  = "00006"
	CmdListRooms      = "00007"
	CmdDisconnect     = "00010"
)

var (
	// ErrBadCommand is returned when a request interior carries an
	// unknown command code. The server answers it with a 400 status.
	ErrBadCommand = errors.New("unrecognised command code")

	// ErrBadStatus is returned when a response interior cannot be split
	// into the fields its command code requires.
	ErrBadStatus = errors.New("malformed status frame")

	// ErrNameTooLong is returned by PadName for names over NameLength bytes.
	ErrNameTooLong = fmt.Errorf("name exceeds %d characters", NameLength)
)

var framePattern = regexp.MustCompile(`\$[^$]+\$`)

// ExtractFrames returns the interior of every complete $...$ frame in buf,
// in order. A single TCP read may deliver several frames at once; bytes
// outside a complete frame (unterminated tails, noise between frames) are
// discarded, never buffered for a later read.
func ExtractFrames(buf string) []string {
	frames := framePattern.FindAllString(buf, -1)
	if len(frames) == 0 {
		return nil
	}
	interiors := make([]string, len(frames))
	for i, f := range frames {
		interiors[i] = f[1 : len(f)-1]
	}
	return interiors
}

// PadName space-pads name to NameLength bytes.
func PadName(name string) (string, error) {
	if len(name) > NameLength {
		return "", ErrNameTooLong
	}
	return name + strings.Repeat(" ", NameLength-len(name)), nil
}

// ValidName reports whether name is a well-formed on-wire name: exactly
// NameLength bytes and free of the three protocol delimiters.
func ValidName(name string) bool {
	if len(name) != NameLength {
		return false
	}
	return !strings.ContainsAny(name, "$#&")
}

// TrimName strips the trailing space padding from an on-wire name.
func TrimName(name string) string {
	return strings.TrimRight(name, " ")
}
