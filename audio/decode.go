//go:build !tinygo

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Open decodes path by extension.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	var format beep.Format
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg":
	default:
		return nil, format, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, format, fmt.Errorf("audio: %w", err)
	}

	var s beep.StreamSeekCloser
	switch ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, format, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	return s, format, nil
}

// Length returns the play time of path.
func Length(path string) (time.Duration, error) {
	s, format, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()), nil
}
