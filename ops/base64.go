package ops

import (
	"context"
	"encoding/base64"
	"errors"
)

// ErrInvalidCharacter mirrors the browser's btoa/atob DOMException name
// for characters outside Latin1 or malformed input.
var ErrInvalidCharacter = errors.New("InvalidCharacter")

// RegisterBase64 installs btoa and atob with the browser's error
// semantics: btoa rejects any character outside Latin1, atob rejects
// malformed base64.
func RegisterBase64(reg *Registry) {
	reg.Register("btoa", func(_ context.Context, args map[string]any) (any, error) {
		s, _ := args["data"].(string)
		runes := []rune(s)
		raw := make([]byte, len(runes))
		for i, r := range runes {
			if r > 0xFF {
				return nil, ErrInvalidCharacter
			}
			raw[i] = byte(r)
		}
		return base64.StdEncoding.EncodeToString(raw), nil
	})

	reg.Register("atob", func(_ context.Context, args map[string]any) (any, error) {
		s, _ := args["data"].(string)
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, ErrInvalidCharacter
		}
		// One char per decoded byte (a Latin1 "binary string"), so bytes
		// that are not valid UTF-8 survive the JSON bridge unchanged.
		out := make([]rune, len(raw))
		for i, b := range raw {
			out[i] = rune(b)
		}
		return string(out), nil
	})
}
