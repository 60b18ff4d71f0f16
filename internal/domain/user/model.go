package user

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	Username string
	IsAdmin  bool
}

// Role maps the admin flag to the stored role name.
func (p Principal) Role() string {
	if p.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
