package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxUsernameLength  = 64
	MinUsernameLength  = 3
	MaxPasswordLength  = 72 // bcrypt input limit
	MinPasswordLength  = 8
	MaxIDLength        = 128
	MaxLayerNameLength = 256
	MaxLinkSize        = 16 * 1024 // 16KB - links are opaque but bounded
)

var (
	// UsernamePattern allows alphanumeric and underscores
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	// UserIDPattern allows alphanumeric, hyphens, underscores
	UserIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateLayerName validates a layer name. Names are compared byte-for-byte,
// so no normalization happens here.
func ValidateLayerName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("layer_name must be valid UTF-8")
	}
	return ValidateString(name, "layer_name", 1, MaxLayerNameLength, true)
}

// ValidateLink bounds the link size. Content is deliberately not inspected.
func ValidateLink(link string) error {
	if len(link) > MaxLinkSize {
		return fmt.Errorf("ipfs_link size %d bytes exceeds maximum %d bytes", len(link), MaxLinkSize)
	}
	if strings.Contains(link, "\x00") {
		return fmt.Errorf("ipfs_link contains invalid characters")
	}
	return nil
}

// ValidateUserID validates a namespace owner taken from a URL or query
func ValidateUserID(user string) error {
	if err := ValidateString(user, "user", 1, MaxIDLength, true); err != nil {
		return err
	}

	if !UserIDPattern.MatchString(user) {
		return fmt.Errorf("user contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}

	return nil
}

// ValidateUsername validates a username
func ValidateUsername(username string) error {
	if err := ValidateString(username, "username", MinUsernameLength, MaxUsernameLength, true); err != nil {
		return err
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only alphanumeric and underscores allowed)")
	}

	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	if err := ValidateString(password, "password", MinPasswordLength, MaxPasswordLength, true); err != nil {
		return err
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLength)
	}
	return nil
}
