package scan

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	fullDigestLimit  = 1 << 20 // 1 MiB
	fingerprintChunk = 1024
)

// FileDigest hashes a file's content with xxhash. Files up to 1 MiB are
// hashed in full. Larger files get a fingerprint of the first 1 KiB, the
// last 1 KiB and the decimal file size; two large files with identical
// head, tail and size but different middles will collide. That trade keeps
// scan I/O bounded and is intentional.
func FileDigest(path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if size <= fullDigestLimit {
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return fmt.Sprintf("%016x", h.Sum64()), nil
	}

	head := make([]byte, fingerprintChunk)
	if _, err := io.ReadFull(f, head); err != nil {
		return "", err
	}
	_, _ = h.Write(head)

	tail := make([]byte, fingerprintChunk)
	if _, err := f.ReadAt(tail, size-fingerprintChunk); err != nil {
		return "", err
	}
	_, _ = h.Write(tail)

	_, _ = h.WriteString(strconv.FormatInt(size, 10))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
