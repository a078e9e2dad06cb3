// Package session holds the ephemeral per-user conversation state: where the
// dialogue stands plus, while browsing, the candidate list and cursor. None
// of it is persisted; a lost session just drops the user back to Idle.
package session

import (
	"sync"
	"time"
)

// State is the dialogue position of a single user.
type State int

const (
	Idle State = iota
	AwaitingGender
	AwaitingAge
	AwaitingBio
	AwaitingPhoto
	AwaitingLocation
	AwaitingSearchGender
	AwaitingSearchMinAge
	AwaitingSearchMaxAge
	Browsing
	AdminMenu
	AwaitingAdminCoinGrant
	AwaitingAdminPremiumGrant
	AwaitingAdminBan
	AwaitingAdminUnban
)

var stateNames = map[State]string{
	Idle:                      "idle",
	AwaitingGender:            "awaiting_gender",
	AwaitingAge:               "awaiting_age",
	AwaitingBio:               "awaiting_bio",
	AwaitingPhoto:             "awaiting_photo",
	AwaitingLocation:          "awaiting_location",
	AwaitingSearchGender:      "awaiting_search_gender",
	AwaitingSearchMinAge:      "awaiting_search_min_age",
	AwaitingSearchMaxAge:      "awaiting_search_max_age",
	Browsing:                  "browsing",
	AdminMenu:                 "admin_menu",
	AwaitingAdminCoinGrant:    "awaiting_admin_coin_grant",
	AwaitingAdminPremiumGrant: "awaiting_admin_premium_grant",
	AwaitingAdminBan:          "awaiting_admin_ban",
	AwaitingAdminUnban:        "awaiting_admin_unban",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is one user's transient record. Values are copied in and out of
// the store, so callers mutate their own copy and write it back with Put.
type Session struct {
	UserID       int64
	State        State
	SearchGender string
	SearchMinAge int
	Candidates   []int64
	Cursor       int
	UpdatedAt    time.Time
}

// Store is the keyed session table (user id -> session). Sessions idle past
// the TTL are swept and the user falls back to Idle.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[int64]Session
	done     chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	st := &Store{
		ttl:      ttl,
		sessions: make(map[int64]Session),
		done:     make(chan struct{}),
	}
	go st.sweepLoop()
	return st
}

func (st *Store) Get(userID int64) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// Put stores the session and refreshes its idle timer.
func (st *Store) Put(s Session) {
	s.UpdatedAt = time.Now()
	st.mu.Lock()
	st.sessions[s.UserID] = s
	st.mu.Unlock()
}

func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	delete(st.sessions, userID)
	st.mu.Unlock()
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) Stop() {
	close(st.done)
}

func (st *Store) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st.sweep()
		case <-st.done:
			return
		}
	}
}

func (st *Store) sweep() {
	cutoff := time.Now().Add(-st.ttl)
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()
}
