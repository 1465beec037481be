package orders

import (
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/outbox"
	"github.com/google/uuid"
)

// Actor is the authenticated caller acting on an order.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	SellerID *uuid.UUID
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// CanAccess reports whether the actor may read or change order. Admins are
// unrestricted; sellers need at least one of their own line items on it.
func (a Actor) CanAccess(order interface{ HasSeller(uuid.UUID) bool }) bool {
	if a.IsAdmin() {
		return true
	}
	if a.Role != enums.ActorRoleSeller || a.SellerID == nil {
		return false
	}
	return order.HasSeller(*a.SellerID)
}

func (a Actor) outboxRef() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, SellerID: a.SellerID, Role: string(a.Role)}
}
