// Package bot drives the per-user conversation: profile creation, candidate
// search and browsing, the referral menu, and the admin flows. It is a plain
// transition function over session state, independent of how events arrive.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/amora-app/amora-bot/internal/auth"
	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/amora-app/amora-bot/internal/session"
	"github.com/amora-app/amora-bot/internal/store"
)

// Event is one normalized inbound user event. Exactly one of Text, PhotoRef
// or Action is meaningful for most updates; Name rides along for first
// contact.
type Event struct {
	UserID   int64
	Name     string
	Text     string
	PhotoRef string
	Action   string
}

// ProfileStore is the record-store surface the engine needs.
type ProfileStore interface {
	Exists(userID int64) (bool, error)
	IsBanned(userID int64) (bool, error)
	Create(userID int64, name, referredBy string) error
	UpdateProfileField(userID int64, field store.ProfileField, value interface{}) error
	FullProfile(userID int64) (*store.FullProfile, error)
	SearchCandidates(excludeUserID int64, gender string, minAge, maxAge int) ([]int64, error)
	ListUsers() ([]store.UserSummary, error)
	ReferralCode(userID int64) (string, error)
	CountReferrals(userID int64) (int64, error)
	RecordLike(likerID, likedID int64) error
}

// Ledger is the coin/flag mutation surface used by admin flows.
type Ledger interface {
	GrantCoins(userID int64, amount int) error
	SetPremium(userID int64, premium bool) error
	SetBanned(userID int64, banned bool) error
}

// Engine is the conversation state machine.
type Engine struct {
	store     ProfileStore
	ledger    Ledger
	sessions  *session.Store
	transport chat.Transport
	auth      auth.Authorizer
}

func NewEngine(profiles ProfileStore, ledger Ledger, sessions *session.Store, transport chat.Transport, authorizer auth.Authorizer) *Engine {
	return &Engine{
		store:     profiles,
		ledger:    ledger,
		sessions:  sessions,
		transport: transport,
		auth:      authorizer,
	}
}

// HandleEvent runs one event through the machine. Validation failures are
// handled by re-prompting and return nil; store failures propagate with the
// session untouched so the user can retry.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	banned, err := e.store.IsBanned(ev.UserID)
	if err != nil {
		return err
	}
	if banned {
		slog.Info("dropped event from banned user", "user_id", ev.UserID)
		return nil
	}

	// Commands cut through whatever state the user is in.
	switch {
	case strings.HasPrefix(ev.Text, "/start"):
		return e.handleStart(ctx, ev)
	case ev.Text == "/cancel":
		return e.handleCancel(ctx, ev)
	case ev.Text == "/menu":
		return e.showMainMenu(ctx, ev.UserID)
	case ev.Text == "/admin":
		return e.openAdminMenu(ctx, ev.UserID)
	}

	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		sess = session.Session{UserID: ev.UserID, State: session.Idle}
	}

	if ev.Action != "" {
		return e.handleAction(ctx, sess, ev)
	}

	switch sess.State {
	case session.AwaitingGender:
		return e.handleGender(ctx, sess, ev.Text)
	case session.AwaitingAge:
		return e.handleAge(ctx, sess, ev.Text)
	case session.AwaitingBio:
		return e.handleBio(ctx, sess, ev.Text)
	case session.AwaitingPhoto:
		return e.handlePhoto(ctx, sess, ev.PhotoRef)
	case session.AwaitingLocation:
		return e.handleLocation(ctx, sess, ev.Text)
	case session.AwaitingSearchGender:
		return e.handleSearchGender(ctx, sess, ev.Text)
	case session.AwaitingSearchMinAge:
		return e.handleSearchMinAge(ctx, sess, ev.Text)
	case session.AwaitingSearchMaxAge:
		return e.handleSearchMaxAge(ctx, sess, ev.Text)
	case session.AwaitingAdminCoinGrant:
		return e.handleAdminCoinGrant(ctx, sess, ev.Text)
	case session.AwaitingAdminPremiumGrant:
		return e.handleAdminTargetInput(ctx, sess, ev.Text, adminOpPremium)
	case session.AwaitingAdminBan:
		return e.handleAdminTargetInput(ctx, sess, ev.Text, adminOpBan)
	case session.AwaitingAdminUnban:
		return e.handleAdminTargetInput(ctx, sess, ev.Text, adminOpUnban)
	default:
		return e.transport.SendText(ctx, ev.UserID, msgIdleHint, chat.FormatPlain)
	}
}

// handleAction routes inline-button presses. Browse and dialogue states get
// first claim on the token; menu tokens work from anywhere a menu is shown.
func (e *Engine) handleAction(ctx context.Context, sess session.Session, ev Event) error {
	switch sess.State {
	case session.Browsing:
		if strings.HasPrefix(ev.Action, actionLikePrefix) {
			return e.handleLike(ctx, sess)
		}
		if ev.Action == actionNextProfile {
			return e.handleNext(ctx, sess)
		}
	case session.AwaitingGender:
		return e.handleGender(ctx, sess, ev.Action)
	case session.AwaitingSearchGender:
		return e.handleSearchGender(ctx, sess, ev.Action)
	case session.AdminMenu:
		return e.handleAdminMenuAction(ctx, sess, ev.Action)
	}

	switch ev.Action {
	case actionSearch:
		return e.startSearch(ctx, sess)
	case actionMyProfile:
		return e.showOwnProfile(ctx, ev.UserID)
	case actionReferral:
		return e.showReferralInfo(ctx, ev.UserID)
	case actionStore:
		e.sessions.Clear(ev.UserID)
		return e.transport.SendText(ctx, ev.UserID, msgStoreComingSoon, chat.FormatPlain)
	case actionAdminMenu:
		return e.openAdminMenu(ctx, ev.UserID)
	}

	slog.Info("ignoring action in current state", "user_id", ev.UserID, "state", sess.State.String(), "action", ev.Action)
	return nil
}

// handleStart creates the user on first contact (with the optional referral
// code from the start payload) and enters profile creation. A returning
// user just gets pointed at the menu.
func (e *Engine) handleStart(ctx context.Context, ev Event) error {
	exists, err := e.store.Exists(ev.UserID)
	if err != nil {
		return err
	}
	if exists {
		return e.transport.SendText(ctx, ev.UserID, msgWelcomeBack, chat.FormatPlain)
	}

	referredBy := strings.TrimSpace(strings.TrimPrefix(ev.Text, "/start"))
	if err := e.store.Create(ev.UserID, ev.Name, referredBy); err != nil {
		return err
	}

	if err := e.transport.SendButtons(ctx, ev.UserID, msgAskGender, chat.FormatPlain, genderButtons()); err != nil {
		slog.Warn("send failed", "user_id", ev.UserID, "error", err)
	}
	sess := session.Session{UserID: ev.UserID, State: session.AwaitingGender}
	e.sessions.Put(sess)
	return nil
}

// handleCancel discards any in-progress session.
func (e *Engine) handleCancel(ctx context.Context, ev Event) error {
	e.sessions.Clear(ev.UserID)
	return e.transport.SendText(ctx, ev.UserID, msgCancelled, chat.FormatPlain)
}

func (e *Engine) showMainMenu(ctx context.Context, userID int64) error {
	return e.transport.SendButtons(ctx, userID, msgMainMenu, chat.FormatPlain, mainMenuButtons(e.auth.IsAdmin(userID)))
}

// notify delivers a best-effort message to another user. Failure is logged,
// never propagated, and never rolls anything back.
func (e *Engine) notify(ctx context.Context, userID int64, text string) {
	if err := e.transport.SendText(ctx, userID, text, chat.FormatPlain); err != nil {
		slog.Warn("notification failed", "user_id", userID, "error", err)
	}
}
