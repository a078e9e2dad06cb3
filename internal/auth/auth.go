// Package auth provides admin authorization as an injected capability
// instead of a compiled-in list.
package auth

// Authorizer answers whether a user may use admin features.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// AllowList is an Authorizer backed by a static id list (ADMIN_USER_IDS).
type AllowList struct {
	ids map[int64]struct{}
}

func NewAllowList(ids []int64) *AllowList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &AllowList{ids: set}
}

func (a *AllowList) IsAdmin(userID int64) bool {
	_, ok := a.ids[userID]
	return ok
}
