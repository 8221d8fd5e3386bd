// Package pngcheck verifies capture payloads before they are sent to a paid
// recognition service.
package pngcheck

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"strings"
)

// DataURLPrefix prefixes base64 PNG payloads produced by the capturer
const DataURLPrefix = "data:image/png;base64,"

// headerLength covers the signature, the IHDR chunk length and type, and
// the width and height fields.
const headerLength = 24

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Valid reports whether payload is a base64 PNG (optionally a data URL)
// whose header declares exactly width x height pixels.
func Valid(payload string, width, height int) bool {
	data, err := decode(payload)
	if err != nil {
		return false
	}
	return ValidBytes(data, width, height)
}

func decode(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(payload, DataURLPrefix))
}

// ValidBytes performs the same checks as Valid on raw PNG bytes
func ValidBytes(data []byte, width, height int) bool {
	if len(data) < headerLength {
		return false
	}
	if !bytes.Equal(data[:8], signature) || string(data[12:16]) != "IHDR" {
		return false
	}

	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	return width >= 0 && height >= 0 && w == uint32(width) && h == uint32(height)
}

// PayloadDimensions is Dimensions on a base64 payload
func PayloadDimensions(payload string) (int, int, bool) {
	data, err := decode(payload)
	if err != nil {
		return 0, 0, false
	}
	return Dimensions(data)
}

// Dimensions returns the width and height declared in a PNG header
func Dimensions(data []byte) (int, int, bool) {
	if len(data) < headerLength || !bytes.Equal(data[:8], signature) {
		return 0, 0, false
	}
	return int(binary.BigEndian.Uint32(data[16:20])), int(binary.BigEndian.Uint32(data[20:24])), true
}
