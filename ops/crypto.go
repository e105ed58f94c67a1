package ops

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RegisterCrypto installs crypto_random_uuid, crypto_get_random_values,
// and crypto_subtle_digest. Randomness is sourced from crypto/rand;
// crypto_random_uuid is grounded on google/uuid's RFC 4122 v4
// generator, the same library the retrieval pack reaches for whenever
// a component needs a request or session identifier.
func RegisterCrypto(reg *Registry) {
	reg.Register("crypto_random_uuid", func(_ context.Context, _ map[string]any) (any, error) {
		return uuid.New().String(), nil
	})

	reg.Register("crypto_get_random_values", func(_ context.Context, args map[string]any) (any, error) {
		length, ok := args["length"].(float64)
		if !ok || length < 0 {
			return nil, errors.New("length required")
		}
		buf := make([]byte, int(length))
		if _, err := cryptorand.Read(buf); err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(buf), nil
	})

	reg.Register("crypto_subtle_digest", func(_ context.Context, args map[string]any) (any, error) {
		alg, _ := args["alg"].(string)
		data, _ := args["data"].(string)
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, errors.New("data must be base64")
		}

		sum, err := digest(alg, raw)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(sum), nil
	})
}

// digest dispatches on alg, normalized the way the browser Subtle
// Crypto spec does: case-insensitive, with or without the dash.
func digest(alg string, data []byte) ([]byte, error) {
	norm := strings.ToUpper(strings.ReplaceAll(alg, "-", ""))
	switch norm {
	case "SHA1":
		sum := sha1.Sum(data)
		return sum[:], nil
	case "SHA256":
		sum := sha256.Sum256(data)
		return sum[:], nil
	case "SHA384":
		sum := sha512.Sum384(data)
		return sum[:], nil
	case "SHA512":
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", alg)
	}
}
