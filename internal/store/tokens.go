package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	sessionIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	adminTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	sessionIDLength    = 8
	adminTokenLength   = 32
)

var errEmptyAlphabet = errors.New("empty alphabet")

// randomString draws length symbols uniformly from alphabet. Bytes that would
// bias the modulo are rejected and redrawn.
func randomString(alphabet string, length int) (string, error) {
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", errEmptyAlphabet
	}
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

func newSessionID() (string, error) {
	return randomString(sessionIDAlphabet, sessionIDLength)
}

func newAdminToken() (string, error) {
	return randomString(adminTokenAlphabet, adminTokenLength)
}

// uniqueSessionID keeps generating candidates until exists reports one that
// is not taken.
func uniqueSessionID(ctx context.Context, exists func(context.Context, string) (bool, error), generate func() (string, error)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := generate()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check session id: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
