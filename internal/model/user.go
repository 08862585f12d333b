package model

// Role names carried in the "role" claim of access tokens issued by the
// auth service.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Principal is the authenticated caller of a request.  Users are owned by
// the auth service; this service only sees the id and role from the token.
//
// Fields:
//
//	UserID – subject of the access token.
//	Role   – role claim (CUSTOMER or ADMIN).
type Principal struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the principal may see every user's orders.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanView reports whether the principal may read data owned by userID.
func (p Principal) CanView(userID uint64) bool { return p.IsAdmin() || p.UserID == userID }
