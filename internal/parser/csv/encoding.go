package csv

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned when every configured decode strategy has been
// tried and none produced a clean result.
var ErrUndecodable = errors.New("csv: input not decodable with configured encodings")

// defaultEncodings is the fallback chain applied when the parser options do
// not name one. Latin-1 defines all 256 byte values, so the chain always
// terminates with a decodable result.
var defaultEncodings = []string{"utf-8", "windows-1250", "latin-1"}

// charmapByName maps encoding labels accepted in parser options to decoders.
var charmapByName = map[string]*charmap.Charmap{
	"windows-1250": charmap.Windows1250,
	"windows-1252": charmap.Windows1252,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
}

// decodeBytes tries each named encoding in order and returns the UTF-8 bytes
// from the first strategy that decodes cleanly, plus the winning encoding
// name. "utf-8" succeeds when the input is already valid UTF-8; a charmap
// strategy fails when any byte maps to the replacement rune. After
// exhausting all strategies the typed ErrUndecodable is returned.
func decodeBytes(data []byte, encodings []string) ([]byte, string, error) {
	if len(encodings) == 0 {
		encodings = defaultEncodings
	}
	var lastErr error
	for _, name := range encodings {
		out, err := decodeAs(data, name)
		if err != nil {
			lastErr = err
			continue
		}
		return out, name, nil
	}
	return nil, "", fmt.Errorf("%w: tried %v: %v", ErrUndecodable, encodings, lastErr)
}

func decodeAs(data []byte, name string) ([]byte, error) {
	if name == "utf-8" || name == "utf8" {
		if !utf8.Valid(data) {
			return nil, errors.New("invalid utf-8")
		}
		return data, nil
	}
	cm, ok := charmapByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	out, _, err := transform.Bytes(decoder(cm), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	// Charmap decoders substitute the replacement rune for undefined bytes
	// instead of erroring; treat that as a strategy failure so the next
	// encoding in the chain gets a chance.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("decode %s: undefined byte in input", name)
	}
	return out, nil
}

func decoder(cm *charmap.Charmap) transform.Transformer {
	var enc encoding.Encoding = cm
	return enc.NewDecoder()
}
