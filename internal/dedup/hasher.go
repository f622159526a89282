package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// ErrFileNotFound marks a photo whose file is absent from the image root.
// Scanners count these instead of failing the batch.
var ErrFileNotFound = errors.New("photo file not found")

// HashFile returns the hex MD5 digest and size of the file's bytes. The
// digest is a duplicate-detection fingerprint, not a security boundary.
// A missing file satisfies errors.Is(err, ErrFileNotFound); no code path
// returns an empty digest with a nil error.
func HashFile(path string) (string, int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", 0, fmt.Errorf("read %s: %w", path, err)
	}
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]), int64(len(content)), nil
}
