package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/amora-app/amora-bot/internal/session"
	"github.com/amora-app/amora-bot/internal/store"
)

type adminOp int

const (
	adminOpPremium adminOp = iota
	adminOpBan
	adminOpUnban
)

// openAdminMenu gates on the injected authorizer; a denial ends the
// conversation.
func (e *Engine) openAdminMenu(ctx context.Context, userID int64) error {
	if !e.auth.IsAdmin(userID) {
		e.sessions.Clear(userID)
		return e.transport.SendText(ctx, userID, msgNotAuthorized, chat.FormatPlain)
	}
	sess := session.Session{UserID: userID, State: session.AdminMenu}
	e.sessions.Put(sess)
	return e.transport.SendButtons(ctx, userID, msgAdminMenu, chat.FormatPlain, adminMenuButtons())
}

func (e *Engine) handleAdminMenuAction(ctx context.Context, sess session.Session, action string) error {
	if !e.auth.IsAdmin(sess.UserID) {
		e.sessions.Clear(sess.UserID)
		return e.transport.SendText(ctx, sess.UserID, msgNotAuthorized, chat.FormatPlain)
	}

	switch action {
	case actionAdminListUsers:
		return e.listUsers(ctx, sess)
	case actionAdminGrantCoins:
		return e.enterAdminInput(ctx, sess, session.AwaitingAdminCoinGrant, msgAskCoinGrant)
	case actionAdminGrantPremium:
		return e.enterAdminInput(ctx, sess, session.AwaitingAdminPremiumGrant, msgAskPremiumGrant)
	case actionAdminBanUser:
		return e.enterAdminInput(ctx, sess, session.AwaitingAdminBan, msgAskBan)
	case actionAdminUnbanUser:
		return e.enterAdminInput(ctx, sess, session.AwaitingAdminUnban, msgAskUnban)
	case actionMainMenuBack:
		e.sessions.Clear(sess.UserID)
		return e.transport.SendText(ctx, sess.UserID, msgBackToMainMenu, chat.FormatPlain)
	}

	slog.Info("unknown admin action", "user_id", sess.UserID, "action", action)
	return nil
}

func (e *Engine) enterAdminInput(ctx context.Context, sess session.Session, state session.State, prompt string) error {
	sess.State = state
	e.sessions.Put(sess)
	if err := e.transport.EditLastMessage(ctx, sess.UserID, prompt, nil); err != nil {
		return e.transport.SendText(ctx, sess.UserID, prompt, chat.FormatPlain)
	}
	return nil
}

func (e *Engine) listUsers(ctx context.Context, sess session.Session) error {
	users, err := e.store.ListUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return e.transport.SendText(ctx, sess.UserID, msgNoUsers, chat.FormatPlain)
	}

	var b strings.Builder
	b.WriteString("<b>List of Users:</b>\n\n")
	for _, u := range users {
		banned := "No"
		if u.IsBanned {
			banned = "Yes"
		}
		fmt.Fprintf(&b, "ID: <code>%d</code>, Name: %s, Banned: %s\n", u.UserID, u.Name, banned)
	}
	return e.transport.SendText(ctx, sess.UserID, b.String(), chat.FormatHTML)
}

// handleAdminCoinGrant parses "userId amount", applies the grant and reports
// back. Malformed input re-prompts; an unknown target returns to the admin
// menu. The target is notified best-effort after the mutation sticks.
func (e *Engine) handleAdminCoinGrant(ctx context.Context, sess session.Session, input string) error {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		return e.transport.SendText(ctx, sess.UserID, msgCoinGrantFormat, chat.FormatPlain)
	}
	targetID, err1 := strconv.ParseInt(fields[0], 10, 64)
	amount, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return e.transport.SendText(ctx, sess.UserID, msgCoinGrantFormat, chat.FormatPlain)
	}

	if err := e.ledger.GrantCoins(targetID, amount); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return e.adminResult(ctx, sess, msgUserNotFound)
		}
		return err
	}

	e.notify(ctx, targetID, fmt.Sprintf(msgCoinsGrantedNotice, amount))
	return e.adminResult(ctx, sess, fmt.Sprintf(msgCoinsGranted, amount, targetID))
}

// handleAdminTargetInput covers the single-id admin inputs: premium grants
// and ban/unban.
func (e *Engine) handleAdminTargetInput(ctx context.Context, sess session.Session, input string, op adminOp) error {
	targetID, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return e.transport.SendText(ctx, sess.UserID, msgInvalidUserID, chat.FormatPlain)
	}

	var mutErr error
	var result, notice string
	switch op {
	case adminOpPremium:
		mutErr = e.ledger.SetPremium(targetID, true)
		result = fmt.Sprintf(msgPremiumGranted, targetID)
		notice = msgPremiumGrantedNotice
	case adminOpBan:
		mutErr = e.ledger.SetBanned(targetID, true)
		result = fmt.Sprintf(msgUserBanned, targetID)
		notice = msgBannedNotice
	case adminOpUnban:
		mutErr = e.ledger.SetBanned(targetID, false)
		result = fmt.Sprintf(msgUserUnbanned, targetID)
		notice = msgUnbannedNotice
	}

	if mutErr != nil {
		if errors.Is(mutErr, store.ErrUserNotFound) {
			return e.adminResult(ctx, sess, msgUserNotFound)
		}
		return mutErr
	}

	e.notify(ctx, targetID, notice)
	return e.adminResult(ctx, sess, result)
}

// adminResult reports the outcome and drops back to the admin menu.
func (e *Engine) adminResult(ctx context.Context, sess session.Session, text string) error {
	if err := e.transport.SendText(ctx, sess.UserID, text, chat.FormatPlain); err != nil {
		slog.Warn("send failed", "user_id", sess.UserID, "error", err)
	}
	sess.State = session.AdminMenu
	sess.Candidates = nil
	sess.Cursor = 0
	e.sessions.Put(sess)
	return e.transport.SendButtons(ctx, sess.UserID, msgAdminMenu, chat.FormatPlain, adminMenuButtons())
}
