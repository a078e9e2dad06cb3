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

// Profile creation: one field per step, validate-or-reprompt. The session
// only advances after the field is persisted, so a store failure leaves the
// user on the same question.

func (e *Engine) handleGender(ctx context.Context, sess session.Session, input string) error {
	input = strings.TrimSpace(input)
	if !models.ValidGender(input) {
		return e.transport.SendButtons(ctx, sess.UserID, msgGenderReprompt, chat.FormatPlain, genderButtons())
	}
	if err := e.store.UpdateProfileField(sess.UserID, store.FieldGender, input); err != nil {
		return err
	}
	sess.State = session.AwaitingAge
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskAge, chat.FormatPlain)
}

func (e *Engine) handleAge(ctx context.Context, sess session.Session, input string) error {
	age, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || !models.ValidAge(age) {
		return e.transport.SendText(ctx, sess.UserID, msgAgeReprompt, chat.FormatPlain)
	}
	if err := e.store.UpdateProfileField(sess.UserID, store.FieldAge, age); err != nil {
		if errors.Is(err, store.ErrInvalidAge) {
			return e.transport.SendText(ctx, sess.UserID, msgAgeReprompt, chat.FormatPlain)
		}
		return err
	}
	sess.State = session.AwaitingBio
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskBio, chat.FormatPlain)
}

func (e *Engine) handleBio(ctx context.Context, sess session.Session, input string) error {
	if strings.TrimSpace(input) == "" {
		return e.transport.SendText(ctx, sess.UserID, msgAskBio, chat.FormatPlain)
	}
	if err := e.store.UpdateProfileField(sess.UserID, store.FieldBio, input); err != nil {
		return err
	}
	sess.State = session.AwaitingPhoto
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskPhoto, chat.FormatPlain)
}

func (e *Engine) handlePhoto(ctx context.Context, sess session.Session, photoRef string) error {
	if photoRef == "" {
		return e.transport.SendText(ctx, sess.UserID, msgPhotoReprompt, chat.FormatPlain)
	}
	if err := e.store.UpdateProfileField(sess.UserID, store.FieldPhotoID, photoRef); err != nil {
		return err
	}
	sess.State = session.AwaitingLocation
	e.sessions.Put(sess)
	return e.transport.SendText(ctx, sess.UserID, msgAskLocation, chat.FormatPlain)
}

func (e *Engine) handleLocation(ctx context.Context, sess session.Session, input string) error {
	if strings.TrimSpace(input) == "" {
		return e.transport.SendText(ctx, sess.UserID, msgAskLocation, chat.FormatPlain)
	}
	if err := e.store.UpdateProfileField(sess.UserID, store.FieldLocation, input); err != nil {
		return err
	}
	e.sessions.Clear(sess.UserID)
	return e.transport.SendText(ctx, sess.UserID, msgProfileComplete, chat.FormatPlain)
}

// showOwnProfile renders the user's own profile, photo-first when one is set.
func (e *Engine) showOwnProfile(ctx context.Context, userID int64) error {
	fp, err := e.store.FullProfile(userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return e.transport.SendText(ctx, userID, msgProfileNotFound, chat.FormatPlain)
		}
		return err
	}
	e.sessions.Clear(userID)
	text := profileText(fp)
	if fp.PhotoID != nil && *fp.PhotoID != "" {
		return e.transport.SendPhoto(ctx, userID, *fp.PhotoID, text, chat.FormatHTML, nil)
	}
	return e.transport.SendText(ctx, userID, text, chat.FormatHTML)
}

// showReferralInfo renders the user's code and how many joins it earned.
func (e *Engine) showReferralInfo(ctx context.Context, userID int64) error {
	code, err := e.store.ReferralCode(userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return e.transport.SendText(ctx, userID, msgProfileNotFound, chat.FormatPlain)
		}
		return err
	}
	count, err := e.store.CountReferrals(userID)
	if err != nil {
		return err
	}
	e.sessions.Clear(userID)
	if err := e.transport.SendText(ctx, userID, referralText(code, count), chat.FormatMarkdown); err != nil {
		slog.Warn("send failed", "user_id", userID, "error", err)
	}
	return nil
}
