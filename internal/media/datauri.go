package media

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// IsDataURI reports whether s is an inline data: URI rather than a link.
func IsDataURI(s string) bool {
	return len(s) > 5 && strings.EqualFold(s[:5], "data:")
}

// DecodeDataURI returns the declared media type and the decoded payload of a
// base64 data: URI.
func DecodeDataURI(s string) (string, []byte, error) {
	if !IsDataURI(s) {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	params := strings.Split(meta, ";")
	if params[len(params)-1] != "base64" {
		return "", nil, ErrInvalidDataURI
	}
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return "", nil, ErrInvalidDataURI
		}
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidDataURI
	}
	return mediaType, data, nil
}
