package store

import (
	"errors"
	"fmt"

	"github.com/amora-app/amora-bot/internal/models"
	"gorm.io/gorm"
)

// Ledger owns coin-balance and account-flag mutations. Amounts are applied
// as given; negative grants (and so negative balances) are allowed.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GrantCoins adds amount to the user's balance. No overdraft check.
func (l *Ledger) GrantCoins(userID int64, amount int) error {
	result := l.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		UpdateColumn("coins", gorm.Expr("coins + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("grant %d coins to user %d: %w", amount, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GrantReferralBonus resolves a referral code and credits its owner. An
// unresolvable code is a silent no-op so stale codes never break callers.
func (l *Ledger) GrantReferralBonus(referrerCode string, amount int) error {
	if err := creditReferrer(l.db, referrerCode, amount); err != nil {
		return fmt.Errorf("grant referral bonus for code %q: %w", referrerCode, err)
	}
	return nil
}

func (l *Ledger) SetPremium(userID int64, premium bool) error {
	return l.setFlag(userID, "is_premium", premium)
}

func (l *Ledger) SetBanned(userID int64, banned bool) error {
	return l.setFlag(userID, "is_banned", banned)
}

func (l *Ledger) setFlag(userID int64, column string, value bool) error {
	var user models.User
	err := l.db.Select("user_id").Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set %s for user %d: %w", column, userID, err)
	}
	result := l.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		UpdateColumn(column, value)
	if result.Error != nil {
		return fmt.Errorf("set %s for user %d: %w", column, userID, result.Error)
	}
	return nil
}
