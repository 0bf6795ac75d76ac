package song

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned when an upload is not a recognizable MP3.
var ErrInvalidFormat = errors.New("not a valid MP3 file")

// headerLen is how many leading bytes ValidateMP3 needs to sniff.
const headerLen = 3

// mp3Magic lists the accepted leading byte sequences: an ID3v2 tag or one
// of the MPEG frame-sync pairs.
var mp3Magic = [][]byte{
	[]byte("ID3"),
	{0xFF, 0xFB},
	{0xFF, 0xF3},
	{0xFF, 0xF2},
	{0xFF, 0xFA},
}

// ValidateMP3 checks the declared filename and the sniffed file header.
// header must hold the first bytes of the stream; the caller is responsible
// for rewinding the stream before handing it to storage.
func ValidateMP3(filename string, header []byte) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".mp3") {
		return fmt.Errorf("%w: only .mp3 files are accepted", ErrInvalidFormat)
	}
	for _, magic := range mp3Magic {
		if bytes.HasPrefix(header, magic) {
			return nil
		}
	}
	return fmt.Errorf("%w: unrecognized file signature", ErrInvalidFormat)
}
