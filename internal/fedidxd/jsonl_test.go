package fedidxd

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestReadFrameSkipsBlank(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\n\n  {\"a\":1}\n"))
	line, err := readFrame(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(line) != `{"a":1}` {
		t.Fatalf("line = %q", line)
	}
}

func TestReadFrameEOFWithoutNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"a":1}`))
	line, err := readFrame(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(line) != `{"a":1}` {
		t.Fatalf("line = %q", line)
	}
	if _, err := readFrame(r); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReadFrameRejectsOversized(t *testing.T) {
	huge := `{"a":"` + strings.Repeat("x", maxFrameBytes) + `"}` + "\n"
	r := bufio.NewReader(strings.NewReader(huge))
	if _, err := readFrame(r); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected oversize error, got %v", err)
	}
}

func TestWriteFrameAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "{\"a\":1}\n" {
		t.Fatalf("out = %q", buf.String())
	}
}
