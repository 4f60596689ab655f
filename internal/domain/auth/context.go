package auth

// UserContext is the authenticated identity attached to a request.
type UserContext struct {
	UserID    string
	Role      Role
	SessionID string
}
