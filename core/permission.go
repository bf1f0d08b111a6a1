package core

import (
	"fmt"
	"sort"
)

// Requirement is the permission a call site declares.
type Requirement struct {
	Scopes          []Scope
	MustBeDelegated bool
}

func RequireScopes(scopes ...Scope) *Requirement {
	return &Requirement{Scopes: append([]Scope(nil), scopes...)}
}

func RequireDelegated(scopes ...Scope) *Requirement {
	return &Requirement{Scopes: append([]Scope(nil), scopes...), MustBeDelegated: true}
}

// CheckPermission evaluates req against cred without any network call.
// Application credentials only face the delegation check.
func CheckPermission(cred *Credential, req *Requirement) error {
	if req == nil {
		return nil
	}
	if cred == nil {
		return fmt.Errorf("core: credential is required")
	}
	if req.MustBeDelegated && !cred.IsDelegated() {
		return NewDelegationRequiredError("")
	}
	if !cred.IsDelegated() {
		return nil
	}
	held := cred.Scopes()
	missing := missingScopes(req.Scopes, held)
	if len(missing) > 0 {
		return NewInsufficientScopeError(req.Scopes, missing, held)
	}
	return nil
}

func missingScopes(required []Scope, held []Scope) []Scope {
	if len(required) == 0 {
		return nil
	}
	heldSet := make(map[Scope]struct{}, len(held))
	for _, scope := range held {
		heldSet[scope] = struct{}{}
	}
	missing := make([]Scope, 0, len(required))
	seen := map[Scope]struct{}{}
	for _, scope := range required {
		if _, ok := heldSet[scope]; ok {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		missing = append(missing, scope)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
