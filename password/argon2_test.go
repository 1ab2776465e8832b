package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := newHasher(t, fastConfig())

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher := newHasher(t, fastConfig())

	a, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newHasher(t, fastConfig())

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
	if hasher.Matches("wrong-password", hash) {
		t.Fatal("Matches accepted a wrong password")
	}
	if !hasher.Matches("correct-password", hash) {
		t.Fatal("Matches rejected the right password")
	}
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	old := newHasher(t, fastConfig())
	hash, err := old.Hash("stored-with-old-params")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	current := newHasher(t, stronger)

	if !current.Matches("stored-with-old-params", hash) {
		t.Fatal("expected verification with the parameters embedded in the hash")
	}
}

func TestPasswordLengthLimits(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 16
	hasher := newHasher(t, cfg)

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", 17)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	hash, err := hasher.Hash(strings.Repeat("a", 16))
	if err != nil {
		t.Fatalf("Hash error at max length: %v", err)
	}
	if _, err := hasher.Verify(strings.Repeat("a", 17), hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to reject long input, got %v", err)
	}
}

func TestDefaultLengthLimits(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	if _, err := hasher.Hash(strings.Repeat("x", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected default max to apply, got %v", err)
	}
	if _, err := hasher.Hash("1234567"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected default min of 8 bytes, got %v", err)
	}
}

func TestMalformedHashes(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	valid, err := hasher.Hash("malformed-check")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	parts := strings.Split(valid, "$")

	cases := map[string]string{
		"empty":           "",
		"not phc":         "plaintext",
		"wrong algorithm": strings.Join([]string{"", "argon2i", parts[2], parts[3], parts[4], parts[5]}, "$"),
		"wrong version":   strings.Join([]string{"", parts[1], "v=16", parts[3], parts[4], parts[5]}, "$"),
		"missing version": strings.Join([]string{"", parts[1], "19", parts[3], parts[4], parts[5]}, "$"),
		"weak memory":     strings.Join([]string{"", parts[1], parts[2], "m=1024,t=1,p=1", parts[4], parts[5]}, "$"),
		"extra param":     strings.Join([]string{"", parts[1], parts[2], "m=8192,t=1,x=1", parts[4], parts[5]}, "$"),
		"bad salt":        strings.Join([]string{"", parts[1], parts[2], parts[3], "!!", parts[5]}, "$"),
		"short salt":      strings.Join([]string{"", parts[1], parts[2], parts[3], "YWJj", parts[5]}, "$"),
		"empty digest":    strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], ""}, "$"),
	}

	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := hasher.Verify("malformed-check", encoded)
			if !errors.Is(err, ErrInvalidHash) {
				t.Fatalf("expected ErrInvalidHash, got %v", err)
			}
			if ok {
				t.Fatal("malformed hash must not verify")
			}
			if hasher.Matches("malformed-check", encoded) {
				t.Fatal("Matches must treat malformed hashes as mismatch")
			}
		})
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := newHasher(t, fastConfig())
	hash, err := weak.Hash("upgrade-me-please")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	needs, err := weak.NeedsUpgrade(hash)
	if err != nil || needs {
		t.Fatalf("same parameters should not need upgrade: needs=%v err=%v", needs, err)
	}

	needs, err = newHasher(t, DefaultConfig()).NeedsUpgrade(hash)
	if err != nil || !needs {
		t.Fatalf("weaker hash should need upgrade: needs=%v err=%v", needs, err)
	}

	if _, err := weak.NeedsUpgrade("garbage"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"max below min": func(c *Config) {
			c.MinPasswordBytes = 32
			c.MaxPasswordBytes = 16
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := fastConfig()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
