package entity

import (
	"fmt"
	"strings"

	"chain-reverse-resolver/internal/domain"
)

const maxLabelLength = 255

// DNSEncode converts "a.b.c" to DNS wire format: length-prefixed labels and a zero terminator.
func DNSEncode(name string) ([]byte, error) {
	if name == "" {
		return []byte{0}, nil
	}
	out := make([]byte, 0, len(name)+2)
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 || len(label) > maxLabelLength {
			return nil, fmt.Errorf("%w: invalid label length %d in %q", domain.ErrMalformedName, len(label), name)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}

// DNSDecode is the inverse of DNSEncode. Trailing bytes after the terminator are rejected.
func DNSDecode(encoded []byte) (string, error) {
	var labels []string
	for offset := 0; ; {
		if offset >= len(encoded) {
			return "", fmt.Errorf("%w: missing terminator", domain.ErrMalformedName)
		}
		size := int(encoded[offset])
		offset++
		if size == 0 {
			if offset != len(encoded) {
				return "", fmt.Errorf("%w: %d trailing bytes", domain.ErrMalformedName, len(encoded)-offset)
			}
			return strings.Join(labels, "."), nil
		}
		if offset+size > len(encoded) {
			return "", fmt.Errorf("%w: label overruns input", domain.ErrMalformedName)
		}
		labels = append(labels, string(encoded[offset:offset+size]))
		offset += size
	}
}
