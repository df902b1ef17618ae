package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits.
const (
	MaxUsernameLength = 32
	MaxNameLength     = 64
	MaxPasswordLength = 256 // characters
)

// Role is a closed set. Anything else fails to parse.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps a stored or submitted value onto a Role. Values match
// exactly; an empty value yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string { return string(r) }

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is a persisted account. It carries no persistence behaviour; the
// store package reads and writes it.
type User struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	Role         Role
	Inactive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the user can authenticate and be fetched.
func (u User) Active() bool {
	return !u.Inactive && u.DeletedAt == nil
}

// Validate checks field constraints only. The password hash is not looked at;
// plaintext passwords go through ValidatePassword before hashing.
func (u User) Validate() error {
	errs := map[string]string{}

	validateUsername(errs, u.Username)
	validateName(errs, u.Name)
	if !u.Role.Valid() {
		errs["role"] = "must be admin or user"
	}

	return newValidationError(errs)
}

// UserPatch carries a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name         *string
	PasswordHash *string
	Inactive     *bool
	Role         *Role
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.PasswordHash == nil && p.Inactive == nil && p.Role == nil
}

func (p UserPatch) Validate() error {
	errs := map[string]string{}
	if p.Name != nil {
		validateName(errs, *p.Name)
	}
	if p.Role != nil && !p.Role.Valid() {
		errs["role"] = "must be admin or user"
	}
	if p.PasswordHash != nil && *p.PasswordHash == "" {
		errs["password"] = "required"
	}
	return newValidationError(errs)
}

// Apply returns u with the patch applied. Timestamps are not touched.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Inactive != nil {
		u.Inactive = *p.Inactive
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(pw string) error {
	return ValidatePasswordLimit(pw, 0)
}

// ValidatePasswordLimit is ValidatePassword with an extra byte limit imposed
// by the hashing scheme. A maxBytes of 0 adds no limit.
func ValidatePasswordLimit(pw string, maxBytes int) error {
	errs := map[string]string{}
	validatePassword(errs, pw)
	if _, failed := errs["password"]; !failed && maxBytes > 0 && len(pw) > maxBytes {
		errs["password"] = fmt.Sprintf("too long (max %d bytes)", maxBytes)
	}
	return newValidationError(errs)
}

func validateUsername(errs map[string]string, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		errs["username"] = "required"
	case username != strings.TrimSpace(username):
		errs["username"] = "must not start or end with whitespace"
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		errs["username"] = fmt.Sprintf("too long (max %d)", MaxUsernameLength)
	}
}

func validateName(errs map[string]string, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		errs["name"] = "required"
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs["name"] = fmt.Sprintf("too long (max %d)", MaxNameLength)
	}
}

func validatePassword(errs map[string]string, pw string) {
	switch {
	case pw == "":
		errs["password"] = "required"
	case utf8.RuneCountInString(pw) > MaxPasswordLength:
		errs["password"] = fmt.Sprintf("too long (max %d)", MaxPasswordLength)
	}
}

// PublicUser is the outward representation of a User.
type PublicUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	Inactive  bool       `json:"inactive"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		Inactive:  u.Inactive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		DeletedAt: u.DeletedAt,
	}
}
