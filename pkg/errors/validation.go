package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSourceBytes bounds diagram sources accepted over the network.
const DefaultMaxSourceBytes = 1 << 20

// ValidateSource checks that diagram text is safe to compile: valid UTF-8,
// free of NUL bytes and no longer than maxBytes. Empty text is valid and
// compiles to an empty graph. A non-positive maxBytes disables the limit.
func ValidateSource(src string, maxBytes int) error {
	if maxBytes > 0 && len(src) > maxBytes {
		return New(ErrCodeInputTooLarge, "source too large (%d bytes, max %d)", len(src), maxBytes)
	}
	if !utf8.ValidString(src) {
		return New(ErrCodeInvalidInput, "source is not valid UTF-8")
	}
	if strings.ContainsRune(src, '\x00') {
		return New(ErrCodeInvalidInput, "source contains a null byte")
	}
	return nil
}

// ValidatePath validates a relative path reported back to clients, such as
// the source_path of a layout document.
//
// The validation rules are:
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateMongoURI checks the scheme of a MongoDB connection string.
func ValidateMongoURI(uri string) error {
	if uri == "" {
		return New(ErrCodeInvalidInput, "mongo URI cannot be empty")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return New(ErrCodeInvalidInput, "mongo URI must use the mongodb or mongodb+srv scheme")
	}
	return nil
}
