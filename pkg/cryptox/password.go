package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported scheme names.
const (
	SchemeArgon2id = "argon2id"
	SchemeBcrypt   = "bcrypt"
)

// Argon2id parameters for newly produced hashes.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxPasswordBytes = 72

var (
	ErrUnknownScheme   = errors.New("cryptox: unknown password scheme")
	ErrNoSchemes       = errors.New("cryptox: at least one password scheme is required")
	ErrPasswordTooLong = errors.New("cryptox: password too long for scheme")
)

// Scheme produces and checks one family of password hashes.
type Scheme interface {
	Name() string
	// Identify reports whether encoded was produced by this scheme.
	Identify(encoded string) bool
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	// MaxPasswordBytes is the longest input Hash accepts, 0 for no limit.
	MaxPasswordBytes() int
}

// Hasher hashes with the first configured scheme and verifies against any of
// them. Hashes from the other schemes are considered deprecated.
type Hasher struct {
	schemes []Scheme
}

// NewHasher builds a Hasher from scheme names. With no names it defaults to
// argon2id with bcrypt accepted for verification.
func NewHasher(pepper string, names ...string) (*Hasher, error) {
	if len(names) == 0 {
		names = []string{SchemeArgon2id, SchemeBcrypt}
	}

	h := &Hasher{}
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case SchemeArgon2id:
			h.schemes = append(h.schemes, argon2idScheme{pepper: pepper})
		case SchemeBcrypt:
			h.schemes = append(h.schemes, bcryptScheme{cost: bcrypt.DefaultCost})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, raw)
		}
	}
	if len(h.schemes) == 0 {
		return nil, ErrNoSchemes
	}
	return h, nil
}

// Current is the name of the scheme used for new hashes.
func (h *Hasher) Current() string {
	return h.schemes[0].Name()
}

// MaxPasswordBytes is the input limit of the current scheme, 0 for none.
func (h *Hasher) MaxPasswordBytes() int {
	return h.schemes[0].MaxPasswordBytes()
}

func (h *Hasher) Hash(password string) (string, error) {
	return h.schemes[0].Hash(password)
}

// Verify reports whether password matches encoded. Malformed hashes and
// unknown schemes simply fail.
func (h *Hasher) Verify(password, encoded string) bool {
	s := h.identify(encoded)
	if s == nil {
		return false
	}
	return s.Verify(password, encoded)
}

// NeedsRehash is true when encoded was not produced by the current scheme.
func (h *Hasher) NeedsRehash(encoded string) bool {
	return !h.schemes[0].Identify(encoded)
}

func (h *Hasher) identify(encoded string) Scheme {
	for _, s := range h.schemes {
		if s.Identify(encoded) {
			return s
		}
	}
	return nil
}

type argon2idScheme struct {
	pepper string
}

func (argon2idScheme) Name() string { return SchemeArgon2id }

func (argon2idScheme) MaxPasswordBytes() int { return 0 }

func (argon2idScheme) Identify(encoded string) bool {
	return strings.HasPrefix(encoded, "$argon2id$")
}

// Hash returns a PHC encoded argon2id hash: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
func (s argon2idScheme) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password+s.pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

func (s argon2idScheme) Verify(password, encoded string) bool {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != SchemeArgon2id || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return false
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return false
	}
	if mem == 0 || iters == 0 || par == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password+s.pepper), salt, iters, mem, par, uint32(len(want))) // #nosec G115
	return subtle.ConstantTimeCompare(got, want) == 1
}

// bcryptScheme verifies hashes carried over from older deployments. bcrypt
// hashes are never peppered.
type bcryptScheme struct {
	cost int
}

func (bcryptScheme) Name() string { return SchemeBcrypt }

func (bcryptScheme) MaxPasswordBytes() int { return bcryptMaxPasswordBytes }

func (bcryptScheme) Identify(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func (s bcryptScheme) Hash(password string) (string, error) {
	if len(password) > bcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	sum, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(sum), nil
}

func (bcryptScheme) Verify(password, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}

// GeneratePassword returns a random 16 character alphanumeric password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16

	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
