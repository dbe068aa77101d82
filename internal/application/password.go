package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// PasswordScheme turns a password into its stored form and checks candidates against it.
type PasswordScheme interface {
	Name() string
	Hash(password string) (string, error)
	Verify(stored, password string) bool
}

// PasswordSchemeByName returns the scheme registered under name.
func PasswordSchemeByName(name string) (PasswordScheme, error) {
	switch name {
	case "", PlainPasswords{}.Name():
		return PlainPasswords{}, nil
	case Argon2idPasswords{}.Name():
		return Argon2idPasswords{Params: DefaultArgon2idParams}, nil
	}
	return nil, fmt.Errorf("unknown password scheme %q", name)
}

// PlainPasswords stores passwords as given and compares them exactly.
type PlainPasswords struct{}

func (PlainPasswords) Name() string { return "plain" }

func (PlainPasswords) Hash(password string) (string, error) { return password, nil }

func (PlainPasswords) Verify(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Argon2idPasswords stores argon2id derived hashes.
type Argon2idPasswords struct {
	Params Argon2idParams
}

func (Argon2idPasswords) Name() string { return "argon2id" }

func (a Argon2idPasswords) Hash(password string) (string, error) {
	params := a.Params
	if params == (Argon2idParams{}) {
		params = DefaultArgon2idParams
	}
	return CreatePasswordHash(password, params)
}

func (Argon2idPasswords) Verify(stored, password string) bool {
	return VerifyPassword(stored, password) == nil
}

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func VerifyPassword(hashedPassword, password string) error {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatiblePasswordVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}
	return ErrInvalidCredentials
}
