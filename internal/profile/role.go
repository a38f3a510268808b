package profile

// Role is a closed set of authorization levels. The zero value means "no
// role" and is never a member of any allow-list.
type Role string

const (
	RoleTraveler      Role = "traveler"
	RoleCampaignOwner Role = "campaign_owner"
	RoleCampaignStaff Role = "campaign_staff"
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "super_admin"
)

// DefaultRole is assigned to a profile created on first authentication.
const DefaultRole = RoleTraveler

// LoginRoute is where callers without a usable role are sent.
const LoginRoute = "/login"

var homeRoutes = map[Role]string{
	RoleTraveler:      "/app/discover",
	RoleCampaignOwner: "/portal/dashboard",
	RoleCampaignStaff: "/portal/dashboard",
	RoleAdmin:         "/admin/dashboard",
	RoleSuperAdmin:    "/admin/dashboard",
}

// ParseRole returns the role named by s. Unknown or empty values report
// false and are never coerced into a default.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if _, ok := homeRoutes[r]; !ok {
		return "", false
	}
	return r, true
}

func (r Role) Valid() bool {
	_, ok := homeRoutes[r]
	return ok
}

// IsAdmin reports membership in the admin role set.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// HomeRoute is the role's canonical landing view. An invalid role has none
// and gets the login route.
func (r Role) HomeRoute() string {
	if home, ok := homeRoutes[r]; ok {
		return home
	}
	return LoginRoute
}

func (r Role) String() string { return string(r) }
