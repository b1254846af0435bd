package domain

// Role codes.
const (
	RoleAdmin    = "admin"
	RoleAttendee = "attendee"
)

// Actor is the authenticated caller, resolved from the bearer token and passed
// explicitly into services.
type Actor struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	CompanyCNPJ string   `json:"company_cnpj"`
	Roles       []string `json:"roles"`
}

// HasRole reports whether the actor carries the given role code.
func (a *Actor) HasRole(code string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == code {
			return true
		}
	}
	return false
}
