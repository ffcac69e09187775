package enum

// Role is the authorization role of a staff user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCashier
}
