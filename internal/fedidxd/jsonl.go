package fedidxd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Frames are single JSON objects, one per line. Blank lines between frames
// are tolerated. A resolve request can carry many paths but never megabytes,
// so an oversized frame means a confused or hostile peer.
const maxFrameBytes = 1 << 20

// readFrame returns the next non-empty frame. A final frame without a
// trailing newline is accepted.
func readFrame(r *bufio.Reader) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(bytes.TrimSpace(line)) == 0) {
			return nil, err
		}
		if len(line) > maxFrameBytes {
			return nil, fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

func writeFrame(w io.Writer, obj any) error {
	if w == nil {
		return fmt.Errorf("writer is nil")
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
