package models

import "time"

// Role identifies the account type chosen at registration.
type Role string

const (
	RoleClient   Role = "client"
	RoleDesigner Role = "designer"
	RolePartner  Role = "partner"
	RoleAdmin    Role = "admin"
)

// ProfilePrivacy controls who may view a user's profile. An empty value means
// the account predates privacy settings and is treated as public.
type ProfilePrivacy string

const (
	ProfilePublic        ProfilePrivacy = "public"
	ProfilePrivate       ProfilePrivacy = "private"
	ProfileFriendsExcept ProfilePrivacy = "friends_except"
)

// User is an account record. The Password field holds an encoded hash
// supplied by the caller; the store never inspects it.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar"`
	JoinDate  time.Time `json:"join_date"`
	Bio       string    `json:"bio,omitempty"`
	Website   string    `json:"website,omitempty"`
	Location  string    `json:"location,omitempty"`

	Privacy ProfilePrivacy `json:"privacy,omitempty"`
	// RestrictedUsers only applies when Privacy is ProfileFriendsExcept.
	RestrictedUsers []int64 `json:"restricted_users,omitempty"`
}

// Restricts reports whether the given viewer is on the user's restricted list.
func (u *User) Restricts(viewerID int64) bool {
	for _, id := range u.RestrictedUsers {
		if id == viewerID {
			return true
		}
	}
	return false
}

// AvatarForRole returns the emoji avatar assigned at registration.
func AvatarForRole(r Role) string {
	switch r {
	case RoleClient:
		return "💼"
	case RoleDesigner:
		return "🎨"
	case RolePartner:
		return "🤝"
	case RoleAdmin:
		return "👑"
	default:
		return "👤"
	}
}
