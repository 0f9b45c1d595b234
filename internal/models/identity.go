package models

// Identity is the verified caller context extracted from the bearer token
// once per request. Machine is true when the token was obtained with the
// client-credentials grant, meaning the caller is a service principal with
// no human owner identity of its own.
type Identity struct {
	ID      string
	Machine bool
	Scopes  []string
}

// ScopeImpersonateUser lets a machine principal act on behalf of a
// different owner identity.
const ScopeImpersonateUser = "impersonate_user"

func (i Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
