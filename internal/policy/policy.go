// Package policy decides whether a mutating request may (re)assign resource
// ownership, and what the resulting owner is. It is a pure decision
// function: no store access, no side effects.
package policy

import "github.com/relayview-io/relayview/internal/models"

// Rejection is a tagged refusal of an ownership request.
type Rejection struct {
	// Impersonation is true when the caller tried to set an owner other
	// than the baseline without holding the impersonate_user scope on a
	// machine token. It maps to 401; the machine self-ownership case maps
	// to 400.
	Impersonation bool
	Reason        string
}

func (r *Rejection) Error() string {
	return r.Reason
}

// ErrImpersonationDenied rejects setting an owner for another identity
// without the impersonate_user scope.
var ErrImpersonationDenied = &Rejection{
	Impersonation: true,
	Reason:        "cannot set owner for another user without impersonate_user scope",
}

// ErrMachineSelfOwner rejects a machine principal naming itself as owner;
// ownership implies an accountable human/tenant identity.
var ErrMachineSelfOwner = &Rejection{
	Reason: "a machine principal cannot set itself as owner of this resource",
}

// Decide returns the owner id a create or update should persist, or a
// Rejection. requestedOwnerID is the payload's optional ownerId;
// currentOwnerID is nil on create and the stored owner on update.
//
// The impersonation check is evaluated before the machine self-ownership
// check: when both could apply the caller sees the 401, never the 400.
func Decide(caller models.Identity, requestedOwnerID *string, currentOwnerID *string) (string, *Rejection) {
	baseline := caller.ID
	if currentOwnerID != nil {
		baseline = *currentOwnerID
	}

	target := baseline
	if requestedOwnerID != nil {
		target = *requestedOwnerID
	}

	if requestedOwnerID != nil && *requestedOwnerID != baseline {
		if !(caller.Machine && caller.HasScope(models.ScopeImpersonateUser)) {
			return "", ErrImpersonationDenied
		}
	}
	if requestedOwnerID != nil && *requestedOwnerID == caller.ID && caller.Machine {
		return "", ErrMachineSelfOwner
	}

	return target, nil
}
