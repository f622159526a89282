package dedup

import (
	"strconv"
	"strings"
)

const imageRootSegment = "/Image/"

// NormalizePath maps a storage-system absolute path to the canonical
// relative identifier used for disk access and cache keys:
//
//	\\server\d$\ProjectFiles\Image\2025\12\10\x.png -> 2025/12/10/x.png
//
// When no "Image" segment is present it falls back to the first
// year-looking segment (4 digits, >= 2020) onward, then to the bare
// filename. Fallback-derived ids can collide; callers treat them as
// lower confidence. Empty input yields "".
func NormalizePath(raw string) string {
	if raw == "" {
		return ""
	}

	p := strings.ReplaceAll(raw, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	if idx := strings.LastIndex(p, imageRootSegment); idx >= 0 {
		return p[idx+len(imageRootSegment):]
	}

	parts := strings.Split(p, "/")
	for i, part := range parts {
		if looksLikeYear(part) {
			return strings.Join(parts[i:], "/")
		}
	}

	return parts[len(parts)-1]
}

func looksLikeYear(segment string) bool {
	if len(segment) != 4 {
		return false
	}
	n, err := strconv.Atoi(segment)
	if err != nil {
		return false
	}
	return n >= 2020
}
