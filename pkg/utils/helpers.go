package utils

import (
	crand "crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/exp/rand"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	saltSize            = 128 / 8
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	symbolChars  = "!@#$%^&*"
	alnumChars   = lowerChars + upperChars + digitChars
	passwordPool = alnumChars + symbolChars
)

// MinGeneratedPasswordLength leaves room for one character of every class.
const MinGeneratedPasswordLength = 4

var ErrInvalidHash = errors.New("invalid password hash")

func init() {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		rand.Seed(uint64(time.Now().UnixNano()))
		return
	}
	rand.Seed(binary.LittleEndian.Uint64(seed[:]))
}

// HashPassword derives an argon2id hash with a fresh random salt and encodes
// it in the PHC string format.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := crand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	saltBase64 := base64.RawStdEncoding.EncodeToString(salt)
	hashBase64 := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, saltBase64, hashBase64), nil
}

func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// GenerateRandomString and GenerateLowerAlnum draw from the seeded package
// generator and are meant for identifiers. Use GenerateSecureString or
// GeneratePassword for anything that grants access.
func GenerateRandomString(limit int) string {
	return randomFrom(alnumChars, limit, rand.Intn)
}

// GenerateLowerAlnum is used for identifiers that must stay lowercase.
func GenerateLowerAlnum(limit int) string {
	return randomFrom(lowerChars+digitChars, limit, rand.Intn)
}

// GenerateSecureString returns an alphanumeric string read from crypto/rand.
func GenerateSecureString(limit int) string {
	return randomFrom(alnumChars, limit, secureIntn)
}

// GeneratePassword returns a password of the given length containing at
// least one lowercase letter, uppercase letter, digit and symbol. Lengths
// below MinGeneratedPasswordLength are raised to it. Characters and their
// order both come from crypto/rand.
func GeneratePassword(length int) string {
	if length < MinGeneratedPasswordLength {
		length = MinGeneratedPasswordLength
	}

	result := make([]byte, 0, length)
	for _, class := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		result = append(result, class[secureIntn(len(class))])
	}
	for len(result) < length {
		result = append(result, passwordPool[secureIntn(len(passwordPool))])
	}

	for i := len(result) - 1; i > 0; i-- {
		j := secureIntn(i + 1)
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// secureIntn returns a uniform value in [0, n). It panics when the system
// random source fails, as there is no safe fallback for secrets.
func secureIntn(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return int(v.Int64())
}

func randomFrom(chars string, limit int, intn func(int) int) string {
	result := make([]byte, limit)
	for i := range result {
		result[i] = chars[intn(len(chars))]
	}

	return string(result)
}
