package drainCmd

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// LineSource splits a borrowed byte stream into lines. It never closes the stream.
type LineSource struct {
	reader    *bufio.Reader
	exhausted bool
}

func NewLineSource(stream io.Reader) *LineSource {
	return &LineSource{reader: bufio.NewReader(stream)}
}

// Exhausted is true once the stream reported end of data. It never resets.
func (s *LineSource) Exhausted() bool {
	return s.exhausted
}

// NextLine blocks until a full line, end of data or a read error. A trailing line
// without a terminator is returned once with ok set; the following call returns ok false.
// Terminators ("\n" or "\r\n") are stripped.
func (s *LineSource) NextLine() (line string, ok bool, err error) {
	if s.exhausted {
		return "", false, nil
	}
	raw, err := s.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		s.exhausted = true
		if raw == "" {
			return "", false, nil
		}
	}
	return strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r"), true, nil
}
