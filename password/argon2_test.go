package password

import (
	"encoding/base64"
	"strings"
	"testing"
)

func secureConfig() Config {
	return Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// fastConfig keeps hashing cheap for tests that hash many times.
func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(secureConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("Abcd1234!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("Abcd1234!", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

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
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	first, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected two hashes of the same password to differ")
	}
	if !hasher.Compare("same-input", first) || !hasher.Compare("same-input", second) {
		t.Fatal("expected both hashes to verify")
	}
}

func TestRoundTripManyPasswords(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	inputs := []string{"a", "Abcd1234!", "mật khẩu dài", strings.Repeat("x", 200), "tab\tand\nnewline"}
	for _, in := range inputs {
		hash, err := hasher.Hash(in)
		if err != nil {
			t.Fatalf("Hash(%q) error: %v", in, err)
		}
		if !hasher.Compare(in, hash) {
			t.Fatalf("expected %q to verify against its own hash", in)
		}
		if hasher.Compare(in+"?", hash) {
			t.Fatalf("expected %q to fail against a different password hash", in+"?")
		}
	}
}

func TestCompareFailsClosed(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	for _, bad := range []string{"", "not-a-phc-hash", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$m=1,t=1,p=1$AAAA$AAAA"} {
		if hasher.Compare("password", bad) {
			t.Fatalf("expected malformed hash %q to compare false", bad)
		}
	}

	var nilHasher *Argon2
	if nilHasher.Compare("password", "anything") {
		t.Fatal("nil hasher must compare false")
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("padding-check")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	parts := strings.Split(hash, "$")
	salt, _ := base64.RawStdEncoding.DecodeString(parts[4])
	sum, _ := base64.RawStdEncoding.DecodeString(parts[5])
	parts[4] = base64.StdEncoding.EncodeToString(salt)
	parts[5] = base64.StdEncoding.EncodeToString(sum)
	padded := strings.Join(parts, "$")

	if !hasher.Compare("padding-check", padded) {
		t.Fatal("expected padded base64 hash to verify")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(Config{
		Memory:      32768,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	newHasher, err := NewArgon2(secureConfig())
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	needsUpgrade, err := newHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	same, err := oldHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if same {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyWrongVersion(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	wrongVersion := strings.Replace(hash, "$v=19$", "$v=18$", 1)
	if _, err := hasher.Verify("version-test", wrongVersion); err == nil {
		t.Fatal("expected unsupported version verification to fail")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestMaxPasswordBytes(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash(strings.Repeat("a", 65)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	if _, err := hasher.Verify(strings.Repeat("c", 65), hash); err == nil {
		t.Fatal("expected long password to be rejected by Verify")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for i, cfg := range cases {
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}
