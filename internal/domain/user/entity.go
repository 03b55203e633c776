// Package user contains the account record that binds a chat identity to
// platform credentials and the last known session.
package user

import (
	"regexp"
	"strings"

	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

var phonePattern = regexp.MustCompile(`^1\d{10}$`)

// User is a platform account registered through onboarding.
type User struct {
	// ID is the store-assigned identifier, zero until persisted.
	ID int64

	// PlatformUserID is the UID cookie issued at login.
	PlatformUserID string

	// ChatID is the opaque chat identity bound to this account, empty once
	// the user logs out.
	ChatID string

	Name string

	// Session is the serialized platform session.
	Session string

	// Phone is the login identity.
	Phone string

	// Password is stored as entered. Login encryption needs the literal value.
	Password string

	IsAdmin    bool
	IsBanned   bool
	UsageCount int
}

// ValidateCredentials checks the phone format and that a password is present.
func ValidateCredentials(phone, password string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return shared.ErrInvalidPhone
	}
	if password == "" {
		return shared.ErrEmptyPassword
	}
	return nil
}

// Bind attaches a chat identity and admin flag.
func (u *User) Bind(chatID string, isAdmin bool) {
	u.ChatID = chatID
	u.IsAdmin = isAdmin
}

// Unbind detaches the chat identity and drops admin rights.
func (u *User) Unbind() {
	u.ChatID = ""
	u.IsAdmin = false
}

// IsBound reports whether a chat identity is attached.
func (u *User) IsBound() bool {
	return u.ChatID != ""
}

// Ban blocks the account from onboarding and signing in. Admins cannot be
// banned.
func (u *User) Ban() error {
	if u.IsAdmin {
		return shared.ErrAdminNotBannable
	}
	u.IsBanned = true
	return nil
}

// Unban lifts a ban.
func (u *User) Unban() {
	u.IsBanned = false
}

// RecordUsage counts a successful sign-in.
func (u *User) RecordUsage() {
	u.UsageCount++
}

// MergeInto copies the freshly onboarded fields onto an existing record.
// ID, IsBanned and UsageCount stay with the existing record.
func (u *User) MergeInto(existing *User) *User {
	if existing == nil {
		return u
	}
	existing.PlatformUserID = u.PlatformUserID
	existing.ChatID = u.ChatID
	existing.Name = u.Name
	existing.Session = u.Session
	existing.Phone = u.Phone
	existing.Password = u.Password
	existing.IsAdmin = u.IsAdmin
	return existing
}
