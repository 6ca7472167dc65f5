// Package credentials verifies usernames and secrets against a fixed set
// of salted hashes. The set is built once at startup and never mutated,
// so it is safe for concurrent use without locking.
package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Identity is the principal returned by a successful [Set.Authenticate].
type Identity struct {
	Username string
}

// ErrRejected is returned for unknown users and wrong secrets alike.
var ErrRejected = errors.New("credentials: rejected")

type Set struct {
	hashes map[string]Hash
	dummy  Hash
}

// NewSet parses hashes, a map from username to encoded hash.
func NewSet(hashes map[string]string) (*Set, error) {
	s := &Set{hashes: make(map[string]Hash, len(hashes))}
	for username, encoded := range hashes {
		if username == "" {
			return nil, errors.New("credentials: empty username")
		}
		h, err := ParseHash(encoded)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", username, err)
		}
		s.hashes[username] = h
	}

	// unknown users are checked against this so that they cost as much
	// as known ones
	random := make([]byte, 32) //nolint: mnd // arbitrary
	_, err := rand.Read(random)
	if err != nil {
		return nil, fmt.Errorf("credentials: generate dummy: %w", err)
	}
	s.dummy, err = dummyLike(s.model(), random)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// model returns the hash of the first username in order, or nil for an
// empty set.
func (s *Set) model() Hash {
	usernames := slices.Sorted(maps.Keys(s.hashes))
	if len(usernames) == 0 {
		return nil
	}
	return s.hashes[usernames[0]]
}

// Authenticate checks secret against the hash stored for username.
func (s *Set) Authenticate(username, secret string) (Identity, error) {
	h, ok := s.hashes[username]
	if !ok {
		h = s.dummy
	}
	if !h.Verify([]byte(secret)) || !ok {
		return Identity{}, ErrRejected
	}
	return Identity{Username: username}, nil
}

// Len returns the number of users in the set.
func (s *Set) Len() int { return len(s.hashes) }

type file struct {
	Users map[string]string `yaml:"users"`
}

// LoadFile reads a YAML document of the form:
//
//	users:
//	  alice: $argon2id$v=19$m=65536,t=3,p=4$...$...
//	  bob: $2b$10$...
func LoadFile(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	err = yaml.Unmarshal(b, &f)
	if err != nil {
		return nil, fmt.Errorf("credentials: decode %s: %w", path, err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("credentials: no users in %s", path)
	}
	return NewSet(f.Users)
}
