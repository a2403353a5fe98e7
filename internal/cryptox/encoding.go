package cryptox

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeBase64 converts bytes to base64 without padding.
func EncodeBase64(data []byte) string {
	return base64.RawStdEncoding.EncodeToString(data)
}

// DecodeBase64 parses base64 or base64url input, with or without padding.
// Other credential managers are not consistent about the variant they emit,
// so the decoder accepts all four combinations.
func DecodeBase64(input string) ([]byte, error) {
	sane := strings.TrimRight(input, "=")
	if data, err := base64.RawStdEncoding.DecodeString(sane); err == nil {
		return data, nil
	}
	if data, err := base64.RawURLEncoding.DecodeString(sane); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("could not decode %q as base64 or base64url", input)
}
