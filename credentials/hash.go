package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hash is a parsed salted secret hash.
type Hash interface {
	// Verify reports whether secret matches. Implementations run in time
	// independent of where secret and the stored key differ.
	Verify(secret []byte) bool
}

var ErrInvalidHash = errors.New("credentials: invalid hash")

// ParseHash parses a PHC argon2id string or a bcrypt hash.
func ParseHash(encoded string) (Hash, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return parseArgon2id(encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		_, err := bcrypt.Cost([]byte(encoded))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
		}
		return bcryptHash(encoded), nil
	default:
		return nil, fmt.Errorf("%w: unknown format", ErrInvalidHash)
	}
}

type bcryptHash []byte

func (h bcryptHash) Verify(secret []byte) bool {
	return bcrypt.CompareHashAndPassword(h, secret) == nil
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{Memory: 64 * 1024, Time: 3, Threads: 4, KeyLen: 32, SaltLen: 16} //nolint: gochecknoglobals,mnd,nolintlint

type argon2idHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

var b64 = base64.RawStdEncoding //nolint: gochecknoglobals,nolintlint

func parseArgon2id(encoded string) (*argon2idHash, error) {
	// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint: mnd // leading empty field plus five sections
		return nil, fmt.Errorf("%w: want 5 sections", ErrInvalidHash)
	}

	var version int
	_, err := fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	h := new(argon2idHash)
	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Threads)
	if err != nil || h.params.Memory == 0 || h.params.Time == 0 || h.params.Threads == 0 {
		return nil, fmt.Errorf("%w: bad parameters %q", ErrInvalidHash, parts[3])
	}

	h.salt, err = b64.DecodeString(parts[4])
	if err != nil || len(h.salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	h.key, err = b64.DecodeString(parts[5])
	if err != nil || len(h.key) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}
	h.params.SaltLen, h.params.KeyLen = uint32(len(h.salt)), uint32(len(h.key)) //nolint: gosec // decoded from short strings
	return h, nil
}

func (h *argon2idHash) Verify(secret []byte) bool {
	key := argon2.IDKey(secret, h.salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return subtle.ConstantTimeCompare(key, h.key) == 1
}

func (h *argon2idHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

// HashSecret hashes secret with argon2id and [DefaultArgon2Params] and
// returns the PHC string form.
func HashSecret(secret []byte) (string, error) {
	return HashSecretWith(secret, DefaultArgon2Params)
}

// HashSecretWith is [HashSecret] with explicit parameters.
func HashSecretWith(secret []byte, params Argon2Params) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("credentials: empty secret")
	}
	h := &argon2idHash{params: params, salt: make([]byte, params.SaltLen)}
	_, err := rand.Read(h.salt)
	if err != nil {
		return "", fmt.Errorf("credentials: generate salt: %w", err)
	}
	h.key = argon2.IDKey(secret, h.salt, params.Time, params.Memory, params.Threads, params.KeyLen)
	return h.String(), nil
}

// dummyLike hashes secret with the algorithm and cost of model, or with
// argon2id and [DefaultArgon2Params] when model is nil.
func dummyLike(model Hash, secret []byte) (Hash, error) {
	switch model := model.(type) {
	case bcryptHash:
		cost, err := bcrypt.Cost(model)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
		}
		b, err := bcrypt.GenerateFromPassword(secret, cost)
		if err != nil {
			return nil, fmt.Errorf("credentials: generate dummy: %w", err)
		}
		return bcryptHash(b), nil
	case *argon2idHash:
		encoded, err := HashSecretWith(secret, model.params)
		if err != nil {
			return nil, err
		}
		return parseArgon2id(encoded)
	default:
		encoded, err := HashSecret(secret)
		if err != nil {
			return nil, err
		}
		return parseArgon2id(encoded)
	}
}
