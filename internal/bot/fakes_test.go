package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amora-app/amora-bot/internal/auth"
	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/amora-app/amora-bot/internal/session"
	"github.com/amora-app/amora-bot/internal/store"
)

// fakeUser is the in-memory row behind fakeStore.
type fakeUser struct {
	name     string
	coins    int
	premium  bool
	banned   bool
	code     string
	fields   map[store.ProfileField]interface{}
}

type createCall struct {
	userID     int64
	name       string
	referredBy string
}

type searchCall struct {
	excludeUserID  int64
	gender         string
	minAge, maxAge int
}

// fakeStore is a hand-written ProfileStore double. Search results are
// scripted through searchResult.
type fakeStore struct {
	users         map[int64]*fakeUser
	created       []createCall
	likes         [][2]int64
	searchResult  []int64
	searchCalls   []searchCall
	referralCount int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*fakeUser{}}
}

func (f *fakeStore) addUser(id int64, name string) *fakeUser {
	u := &fakeUser{name: name, coins: 100, code: "code0000", fields: map[store.ProfileField]interface{}{}}
	f.users[id] = u
	return u
}

func (f *fakeStore) Exists(userID int64) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeStore) IsBanned(userID int64) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	return u.banned, nil
}

func (f *fakeStore) Create(userID int64, name, referredBy string) error {
	f.created = append(f.created, createCall{userID, name, referredBy})
	if _, ok := f.users[userID]; !ok {
		f.addUser(userID, name)
	}
	return nil
}

func (f *fakeStore) UpdateProfileField(userID int64, field store.ProfileField, value interface{}) error {
	u, ok := f.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.fields[field] = value
	return nil
}

func (f *fakeStore) FullProfile(userID int64) (*store.FullProfile, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	fp := &store.FullProfile{UserID: userID, Name: u.name, Coins: u.coins, IsPremium: u.premium}
	if v, ok := u.fields[store.FieldGender]; ok {
		s := v.(string)
		fp.Gender = &s
	}
	if v, ok := u.fields[store.FieldAge]; ok {
		n := v.(int)
		fp.Age = &n
	}
	if v, ok := u.fields[store.FieldBio]; ok {
		s := v.(string)
		fp.Bio = &s
	}
	if v, ok := u.fields[store.FieldPhotoID]; ok {
		s := v.(string)
		fp.PhotoID = &s
	}
	if v, ok := u.fields[store.FieldLocation]; ok {
		s := v.(string)
		fp.Location = &s
	}
	return fp, nil
}

func (f *fakeStore) SearchCandidates(excludeUserID int64, gender string, minAge, maxAge int) ([]int64, error) {
	f.searchCalls = append(f.searchCalls, searchCall{excludeUserID, gender, minAge, maxAge})
	return f.searchResult, nil
}

func (f *fakeStore) ListUsers() ([]store.UserSummary, error) {
	var out []store.UserSummary
	for id, u := range f.users {
		out = append(out, store.UserSummary{UserID: id, Name: u.name, IsBanned: u.banned})
	}
	return out, nil
}

func (f *fakeStore) ReferralCode(userID int64) (string, error) {
	u, ok := f.users[userID]
	if !ok {
		return "", store.ErrUserNotFound
	}
	return u.code, nil
}

func (f *fakeStore) CountReferrals(userID int64) (int64, error) {
	if _, ok := f.users[userID]; !ok {
		return 0, store.ErrUserNotFound
	}
	return f.referralCount, nil
}

func (f *fakeStore) RecordLike(likerID, likedID int64) error {
	f.likes = append(f.likes, [2]int64{likerID, likedID})
	return nil
}

type grant struct {
	userID int64
	amount int
}

// fakeLedger shares the fakeStore's user table so flag changes are visible
// to the engine's ban check.
type fakeLedger struct {
	store  *fakeStore
	grants []grant
}

func (f *fakeLedger) GrantCoins(userID int64, amount int) error {
	u, ok := f.store.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.coins += amount
	f.grants = append(f.grants, grant{userID, amount})
	return nil
}

func (f *fakeLedger) SetPremium(userID int64, premium bool) error {
	u, ok := f.store.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.premium = premium
	return nil
}

func (f *fakeLedger) SetBanned(userID int64, banned bool) error {
	u, ok := f.store.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.banned = banned
	return nil
}

type sentMsg struct {
	method   string // text, photo, buttons, edit, delete
	userID   int64
	text     string
	photoRef string
	format   chat.Format
	buttons  [][]chat.Button
}

// fakeTransport records every outbound call in order.
type fakeTransport struct {
	sent     []sentMsg
	failEdit bool
}

var errEditRejected = errors.New("edit rejected")

func (f *fakeTransport) SendText(_ context.Context, userID int64, text string, format chat.Format) error {
	f.sent = append(f.sent, sentMsg{method: "text", userID: userID, text: text, format: format})
	return nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, userID int64, photoRef, caption string, format chat.Format, buttons [][]chat.Button) error {
	f.sent = append(f.sent, sentMsg{method: "photo", userID: userID, text: caption, photoRef: photoRef, format: format, buttons: buttons})
	return nil
}

func (f *fakeTransport) SendButtons(_ context.Context, userID int64, text string, format chat.Format, buttons [][]chat.Button) error {
	f.sent = append(f.sent, sentMsg{method: "buttons", userID: userID, text: text, format: format, buttons: buttons})
	return nil
}

func (f *fakeTransport) EditLastMessage(_ context.Context, userID int64, text string, buttons [][]chat.Button) error {
	if f.failEdit {
		return errEditRejected
	}
	f.sent = append(f.sent, sentMsg{method: "edit", userID: userID, text: text, buttons: buttons})
	return nil
}

func (f *fakeTransport) DeleteLastMessage(_ context.Context, userID int64) error {
	f.sent = append(f.sent, sentMsg{method: "delete", userID: userID})
	return nil
}

// to returns the recorded messages sent to one user, in order.
func (f *fakeTransport) to(userID int64) []sentMsg {
	var out []sentMsg
	for _, m := range f.sent {
		if m.userID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) last(t *testing.T, userID int64) sentMsg {
	t.Helper()
	msgs := f.to(userID)
	if len(msgs) == 0 {
		t.Fatalf("no messages sent to user %d", userID)
	}
	return msgs[len(msgs)-1]
}

type testRig struct {
	engine    *Engine
	store     *fakeStore
	ledger    *fakeLedger
	sessions  *session.Store
	transport *fakeTransport
}

func newTestRig(t *testing.T, admins ...int64) *testRig {
	t.Helper()
	fs := newFakeStore()
	fl := &fakeLedger{store: fs}
	ft := &fakeTransport{}
	sessions := session.NewStore(30 * time.Minute)
	t.Cleanup(sessions.Stop)
	return &testRig{
		engine:    NewEngine(fs, fl, sessions, ft, auth.NewAllowList(admins)),
		store:     fs,
		ledger:    fl,
		sessions:  sessions,
		transport: ft,
	}
}

func (r *testRig) state(t *testing.T, userID int64) session.State {
	t.Helper()
	sess, ok := r.sessions.Get(userID)
	if !ok {
		return session.Idle
	}
	return sess.State
}

func (r *testRig) handle(t *testing.T, ev Event) {
	t.Helper()
	if err := r.engine.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent(%+v): %v", ev, err)
	}
}
