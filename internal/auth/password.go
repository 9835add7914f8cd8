package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces self-describing one-way hashes and verifies plaintexts against them.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hashed string) bool
}

// ErrPasswordTooLong is returned by BcryptHasher for inputs over 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// NewPasswordHasher returns the hasher for algorithm. Either hasher verifies both hash formats.
func NewPasswordHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, "":
		return BcryptHasher{Cost: bcryptCost}, nil
	case AlgorithmArgon2id:
		return DefaultArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
}

// BcryptHasher hashes with bcrypt at the configured cost.
type BcryptHasher struct {
	Cost int
}

// Hash hashes a plaintext password with configured cost.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare verifies a password against its hashed value.
func (h BcryptHasher) Compare(plain, hashed string) bool {
	return comparePassword(plain, hashed)
}

// Argon2Hasher hashes with argon2id and encodes the result in PHC string format.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Hasher uses the RFC 9106 second recommended parameter set.
func DefaultArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{Time: 3, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

const argon2Prefix = "$argon2id$"

// Upper bounds on parameters read back from a stored hash. Anything larger
// is treated as malformed rather than derived.
const (
	maxArgon2Memory     = 1 << 21 // KiB
	maxArgon2Iterations = 16
	maxArgon2Threads    = 16
	maxArgon2SaltLen    = 64
	maxArgon2KeyLen     = 64
)

// Hash derives an argon2id key from a fresh random salt.
func (h Argon2Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.Time, h.Memory, h.Threads, h.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare verifies a password against its hashed value.
func (h Argon2Hasher) Compare(plain, hashed string) bool {
	return comparePassword(plain, hashed)
}

func comparePassword(plain, hashed string) bool {
	if strings.HasPrefix(hashed, argon2Prefix) {
		return compareArgon2(plain, hashed)
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

func compareArgon2(plain, hashed string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || memory > maxArgon2Memory ||
		iterations == 0 || iterations > maxArgon2Iterations ||
		threads == 0 || threads > maxArgon2Threads {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxArgon2SaltLen {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgon2KeyLen {
		return false
	}

	got := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
