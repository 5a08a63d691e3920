package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// hashKey derives "<kind>:<sha256>" from the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SourceHash returns the content hash of diagram source. Line endings are
// normalized first, so a diagram saved with CRLF or LF shares one entry.
func SourceHash(src string) string {
	return Hash([]byte(lineEndings.Replace(src)))
}
