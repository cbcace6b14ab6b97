package model

// ActorContext identifies the authenticated caller of a core operation.
type ActorContext struct {
	UserID uint
	Role   UserRole
}

func (a ActorContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Authenticated is false for the zero value.
func (a ActorContext) Authenticated() bool {
	return a.UserID != 0
}

// Owns reports whether the actor is the recorded owner.
func (a ActorContext) Owns(ownerID *uint) bool {
	return ownerID != nil && a.UserID != 0 && *ownerID == a.UserID
}
