package profile

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the authoritative per-subject record. Role is stored as text and
// only trusted after ParseRole.
type Profile struct {
	UserID               string         `gorm:"primaryKey" json:"uid"`
	DisplayName          string         `json:"display_name"`
	DisplayNameLocalized string         `json:"display_name_localized"`
	Email                string         `gorm:"index" json:"email"`
	Phone                string         `json:"phone"`
	Role                 string         `json:"role"`
	Verified             bool           `json:"verified"`
	Active               bool           `json:"active"`
	NotificationTokens   pq.StringArray `gorm:"type:text[]" json:"-"`
	PreferredLanguage    string         `json:"preferred_language"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

func (Profile) TableName() string { return "rahal_auth.profiles" }

// ResolvedRole returns the profile's role if it is one of the known roles.
func (p *Profile) ResolvedRole() (Role, bool) {
	if p == nil {
		return "", false
	}
	return ParseRole(p.Role)
}

func (p *Profile) clone() *Profile {
	cp := *p
	cp.NotificationTokens = append(pq.StringArray(nil), p.NotificationTokens...)
	return &cp
}
