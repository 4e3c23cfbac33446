// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package sec

// Identity is the resolved acting user carried through the request pipeline.
//
// It is built by the identity resolver middleware after token verification
// and a user lookup, and consumed by the role gate and the domain handlers.
// Fields mirror the persisted account record but carry no secrets.
type Identity struct {
	UserID      int64
	Email       string
	DisplayName string
	Role        Role
	Confirmed   bool
}
