package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/amora-app/amora-bot/internal/models"
	"github.com/amora-app/amora-bot/internal/session"
	"github.com/amora-app/amora-bot/internal/store"
)

// Search criteria collection follows the profile-creation pattern: each
// answer is kept in the session, a bad answer re-asks the same question and
// never discards answers already given.

// startSearch begins criteria collection, overwriting any previous search
// or browse in the session.
func (e *Engine) startSearch(ctx context.Context, sess session.Session) error {
	sess = session.Session{UserID: sess.UserID, State: session.AwaitingSearchGender}
	e.sessions.Put(sess)
	return e.transport.SendButtons(ctx, sess.UserID, msgAskSearchGender, chat.FormatPlain, genderButtons())
}

func (e *Engine) handleSearchGender(ctx context.Context, sess session.Session, input string) error {
	input = strings.TrimSpace(input)
	if !models.ValidGender(input) {
		return e.transport.SendButtons(ctx, sess.UserID, msgGenderReprompt, chat.FormatPlain, genderButtons())
	}
	sess.SearchGender = input
	sess.State = session.AwaitingSearchMinAge
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskSearchMinAge, chat.FormatPlain)
}

func (e *Engine) handleSearchMinAge(ctx context.Context, sess session.Session, input string) error {
	minAge, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || !models.ValidAge(minAge) {
		return e.transport.SendText(ctx, sess.UserID, msgAgeReprompt, chat.FormatPlain)
	}
	sess.SearchMinAge = minAge
	sess.State = session.AwaitingSearchMaxAge
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskSearchMaxAge, chat.FormatPlain)
}

// handleSearchMaxAge validates the upper bound, runs the candidate query and
// either enters Browsing or ends immediately on an empty result.
func (e *Engine) handleSearchMaxAge(ctx context.Context, sess session.Session, input string) error {
	maxAge, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || maxAge < sess.SearchMinAge || maxAge > models.MaxAge {
		return e.transport.SendText(ctx, sess.UserID, msgMaxAgeReprompt, chat.FormatPlain)
	}

	candidates, err := e.store.SearchCandidates(sess.UserID, sess.SearchGender, sess.SearchMinAge, maxAge)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		e.sessions.Clear(sess.UserID)
		return e.transport.SendText(ctx, sess.UserID, msgNoCandidates, chat.FormatPlain)
	}

	sess.Candidates = candidates
	sess.Cursor = 0
	sess.State = session.Browsing
	e.sessions.Put(sess)
	return e.renderCurrentCandidate(ctx, sess)
}

// handleLike records the edge for the currently displayed candidate,
// notifies them out of band, and advances.
func (e *Engine) handleLike(ctx context.Context, sess session.Session) error {
	if sess.Cursor >= len(sess.Candidates) {
		return e.endBrowse(ctx, sess.UserID)
	}
	target := sess.Candidates[sess.Cursor]
	if err := e.store.RecordLike(sess.UserID, target); err != nil {
		return err
	}
	e.notify(ctx, target, msgLikedNotice)
	if err := e.transport.EditLastMessage(ctx, sess.UserID, msgYouLiked, nil); err != nil {
		slog.Warn("edit failed", "user_id", sess.UserID, "error", err)
	}
	return e.advanceBrowse(ctx, sess)
}

// handleNext advances without recording anything.
func (e *Engine) handleNext(ctx context.Context, sess session.Session) error {
	if err := e.transport.DeleteLastMessage(ctx, sess.UserID); err != nil {
		slog.Warn("delete failed", "user_id", sess.UserID, "error", err)
	}
	return e.advanceBrowse(ctx, sess)
}

func (e *Engine) advanceBrowse(ctx context.Context, sess session.Session) error {
	sess.Cursor++
	if sess.Cursor >= len(sess.Candidates) {
		return e.endBrowse(ctx, sess.UserID)
	}
	e.sessions.Put(sess)
	return e.renderCurrentCandidate(ctx, sess)
}

func (e *Engine) endBrowse(ctx context.Context, userID int64) error {
	e.sessions.Clear(userID)
	return e.transport.SendText(ctx, userID, msgNoMoreProfiles, chat.FormatPlain)
}

// renderCurrentCandidate shows the candidate under the cursor with the
// like/next buttons.
func (e *Engine) renderCurrentCandidate(ctx context.Context, sess session.Session) error {
	target := sess.Candidates[sess.Cursor]
	fp, err := e.store.FullProfile(target)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Candidate vanished between the query and the render; skip it.
			return e.advanceBrowse(ctx, sess)
		}
		return err
	}
	text := profileText(fp)
	buttons := browseButtons(target)
	if fp.PhotoID != nil && *fp.PhotoID != "" {
		return e.transport.SendPhoto(ctx, sess.UserID, *fp.PhotoID, text, chat.FormatHTML, buttons)
	}
	return e.transport.SendButtons(ctx, sess.UserID, text, chat.FormatHTML, buttons)
}
