package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// cheap keeps argon2id tests fast.
var cheap = Argon2Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

func mustArgon2(t *testing.T, secret string) string {
	t.Helper()
	encoded, err := HashSecretWith([]byte(secret), cheap)
	if err != nil {
		t.Fatalf("HashSecretWith() error: %v", err)
	}
	return encoded
}

func mustBcrypt(t *testing.T, secret string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword() error: %v", err)
	}
	return string(b)
}

func TestSet_Authenticate(t *testing.T) {
	set, err := NewSet(map[string]string{
		"alice": mustArgon2(t, "wonderland"),
		"bob":   mustBcrypt(t, "builder"),
	})
	if err != nil {
		t.Fatalf("NewSet() error: %v", err)
	}

	tests := []struct {
		name     string
		username string
		secret   string
		ok       bool
	}{
		{name: "argon2id match", username: "alice", secret: "wonderland", ok: true},
		{name: "bcrypt match", username: "bob", secret: "builder", ok: true},
		{name: "argon2id wrong secret", username: "alice", secret: "Wonderland"},
		{name: "bcrypt wrong secret", username: "bob", secret: "builder "},
		{name: "secret of other user", username: "alice", secret: "builder"},
		{name: "unknown user", username: "mallory", secret: "wonderland"},
		{name: "empty", username: "", secret: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, err := set.Authenticate(test.username, test.secret)
			if test.ok {
				if err != nil {
					t.Fatalf("Authenticate() error: %v", err)
				}
				if id.Username != test.username {
					t.Errorf("Identity.Username = %q, want %q", id.Username, test.username)
				}
				return
			}
			if !errors.Is(err, ErrRejected) {
				t.Errorf("Authenticate() error = %v, want ErrRejected", err)
			}
			if id != (Identity{}) {
				t.Errorf("Authenticate() identity = %+v on rejection, want zero", id)
			}
		})
	}
}

func TestNewSet_DummyMatchesUsers(t *testing.T) {
	t.Run("bcrypt", func(t *testing.T) {
		set, err := NewSet(map[string]string{"bob": mustBcrypt(t, "builder")})
		if err != nil {
			t.Fatalf("NewSet() error: %v", err)
		}
		dummy, ok := set.dummy.(bcryptHash)
		if !ok {
			t.Fatalf("dummy is %T, want bcryptHash", set.dummy)
		}
		if cost, _ := bcrypt.Cost(dummy); cost != bcrypt.MinCost {
			t.Errorf("dummy cost = %d, want %d", cost, bcrypt.MinCost)
		}
	})

	t.Run("argon2id", func(t *testing.T) {
		set, err := NewSet(map[string]string{"alice": mustArgon2(t, "wonderland")})
		if err != nil {
			t.Fatalf("NewSet() error: %v", err)
		}
		dummy, ok := set.dummy.(*argon2idHash)
		if !ok {
			t.Fatalf("dummy is %T, want *argon2idHash", set.dummy)
		}
		if dummy.params != cheap {
			t.Errorf("dummy params = %+v, want %+v", dummy.params, cheap)
		}
	})

	t.Run("empty", func(t *testing.T) {
		set, err := NewSet(map[string]string{})
		if err != nil {
			t.Fatalf("NewSet() error: %v", err)
		}
		dummy, ok := set.dummy.(*argon2idHash)
		if !ok {
			t.Fatalf("dummy is %T, want *argon2idHash", set.dummy)
		}
		if dummy.params != DefaultArgon2Params {
			t.Errorf("dummy params = %+v, want %+v", dummy.params, DefaultArgon2Params)
		}
	})
}

func TestParseHash_Invalid(t *testing.T) {
	valid := mustArgon2(t, "secret")
	parts := strings.Split(valid, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "plaintext", encoded: "hunter2"},
		{name: "other algorithm", encoded: "$argon2i$v=19$m=64,t=1,p=1$c2FsdA$a2V5"},
		{name: "missing section", encoded: strings.Join(parts[:5], "$")},
		{name: "bad version", encoded: strings.Replace(valid, "v=19", "v=16", 1)},
		{name: "zero memory", encoded: strings.Replace(valid, "m=64", "m=0", 1)},
		{name: "bad salt", encoded: strings.Join([]string{"", parts[1], parts[2], parts[3], "!!", parts[5]}, "$")},
		{name: "truncated bcrypt", encoded: "$2b$10$short"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseHash(test.encoded)
			if !errors.Is(err, ErrInvalidHash) {
				t.Errorf("ParseHash(%q) error = %v, want ErrInvalidHash", test.encoded, err)
			}
		})
	}
}

func TestHashSecret_RoundTrip(t *testing.T) {
	encoded, err := HashSecret([]byte("correct horse"))
	if err != nil {
		t.Fatalf("HashSecret() error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=4$") {
		t.Errorf("HashSecret() = %q, unexpected prefix", encoded)
	}

	h, err := ParseHash(encoded)
	if err != nil {
		t.Fatalf("ParseHash() error: %v", err)
	}
	if !h.Verify([]byte("correct horse")) {
		t.Error("Verify() rejected the hashed secret")
	}
	if h.Verify([]byte("correct horse battery")) {
		t.Error("Verify() accepted a different secret")
	}

	other, _ := HashSecret([]byte("correct horse"))
	if other == encoded {
		t.Error("HashSecret() produced identical strings, salt not random")
	}

	if _, err := HashSecret(nil); err == nil {
		t.Error("HashSecret(nil) succeeded, want error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}

	path := write("ok.yaml", "users:\n  alice: '"+mustArgon2(t, "wonderland")+"'\n  bob: '"+mustBcrypt(t, "builder")+"'\n")
	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if _, err := set.Authenticate("bob", "builder"); err != nil {
		t.Errorf("Authenticate() error: %v", err)
	}

	for name, content := range map[string]string{
		"empty.yaml":     "",
		"nousers.yaml":   "users: {}\n",
		"badhash.yaml":   "users:\n  alice: plaintext\n",
		"badyaml.yaml":   "users: [\n",
		"emptyuser.yaml": "users:\n  '': '" + mustBcrypt(t, "x") + "'\n",
	} {
		if _, err := LoadFile(write(name, content)); err == nil {
			t.Errorf("LoadFile(%s) succeeded, want error", name)
		}
	}

	if _, err := LoadFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadFile() on missing file succeeded, want error")
	}
}
