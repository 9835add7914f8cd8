package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHashers() map[string]PasswordHasher {
	return map[string]PasswordHasher{
		AlgorithmBcrypt:   BcryptHasher{Cost: bcrypt.MinCost},
		AlgorithmArgon2id: Argon2Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
	}
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	for name, h := range testHashers() {
		t.Run(name, func(t *testing.T) {
			hashed, err := h.Hash("secret123")
			require.NoError(t, err)

			assert.True(t, h.Compare("secret123", hashed))
			assert.False(t, h.Compare("secret124", hashed))
			assert.False(t, h.Compare("", hashed))
		})
	}
}

func TestPasswordHasher_DistinctSalts(t *testing.T) {
	for name, h := range testHashers() {
		t.Run(name, func(t *testing.T) {
			first, err := h.Hash("secret123")
			require.NoError(t, err)
			second, err := h.Hash("secret123")
			require.NoError(t, err)

			assert.NotEqual(t, first, second)
			assert.True(t, h.Compare("secret123", first))
			assert.True(t, h.Compare("secret123", second))
		})
	}
}

func TestPasswordHasher_MalformedHashIsFalse(t *testing.T) {
	malformed := []string{
		"",
		"plaintext",
		"$2a$04$short",
		"$argon2id$v=19$m=8192,t=1,p=1$",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=4294967295,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=255$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$" + strings.Repeat("c2Fs", 30) + "$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$" + strings.Repeat("a2V5", 30),
	}
	for name, h := range testHashers() {
		for _, hashed := range malformed {
			assert.False(t, h.Compare("secret123", hashed), "%s accepted %q", name, hashed)
		}
	}
}

func TestPasswordHasher_VerifiesOtherFormat(t *testing.T) {
	hashers := testHashers()
	bcryptHash, err := hashers[AlgorithmBcrypt].Hash("secret123")
	require.NoError(t, err)
	argonHash, err := hashers[AlgorithmArgon2id].Hash("secret123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(argonHash, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.True(t, hashers[AlgorithmArgon2id].Compare("secret123", bcryptHash))
	assert.True(t, hashers[AlgorithmBcrypt].Compare("secret123", argonHash))
}

func TestBcryptHasher_TooLongPasswordFails(t *testing.T) {
	_, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(AlgorithmBcrypt, 10)
	require.NoError(t, err)
	assert.Equal(t, BcryptHasher{Cost: 10}, h)

	h, err = NewPasswordHasher(AlgorithmArgon2id, 10)
	require.NoError(t, err)
	assert.IsType(t, Argon2Hasher{}, h)

	_, err = NewPasswordHasher("md5", 10)
	require.Error(t, err)
}
