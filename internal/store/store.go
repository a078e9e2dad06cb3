package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amora-app/amora-bot/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidField = errors.New("field is not updatable")
	ErrInvalidAge   = errors.New("age must be an integer between 18 and 99")
)

// ProfileField is the closed set of updatable profile columns. UpdateProfileField
// refuses anything outside it, so no caller-supplied name ever reaches SQL.
type ProfileField string

const (
	FieldGender   ProfileField = "gender"
	FieldAge      ProfileField = "age"
	FieldBio      ProfileField = "bio"
	FieldPhotoID  ProfileField = "photo_id"
	FieldLocation ProfileField = "location"
)

// SearchLimit caps a candidate query; results beyond it are dropped.
const SearchLimit = 20

// Attempts at generating a unique referral code before giving up.
const referralCodeAttempts = 3

// Store is the typed adapter over the user/profile/like tables.
type Store struct {
	db            *gorm.DB
	startingCoins int
	referralBonus int

	// overridable in tests to force code collisions
	newCode func() string
}

func New(db *gorm.DB, startingCoins, referralBonus int) *Store {
	return &Store{
		db:            db,
		startingCoins: startingCoins,
		referralBonus: referralBonus,
		newCode:       func() string { return uuid.NewString()[:8] },
	}
}

func (s *Store) Exists(userID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return count > 0, nil
}

func (s *Store) IsBanned(userID int64) (bool, error) {
	var user models.User
	err := s.db.Select("is_banned").Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check ban for user %d: %w", userID, err)
	}
	return user.IsBanned, nil
}

// Create inserts the user and an empty profile, and credits the referrer if
// referredBy resolves to a known referral code. The whole thing is one
// transaction: nobody observes the new user without the referral credit.
// Creating an existing user is a no-op. A stale or unknown referral code
// silently grants nothing; a failed credit is logged and does not abort
// creation.
func (s *Store) Create(userID int64, name string, referredBy string) error {
	exists, err := s.Exists(userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			user := models.User{
				ID:           userID,
				Name:         name,
				Coins:        s.startingCoins,
				ReferralCode: s.newCode(),
			}
			if referredBy != "" {
				code := referredBy
				user.ReferredBy = &code
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.Profile{UserID: userID}).Error; err != nil {
				return err
			}
			if referredBy != "" {
				if err := creditReferrer(tx, referredBy, s.referralBonus); err != nil {
					slog.Warn("referral credit failed", "user_id", userID, "code", referredBy, "error", err)
				}
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user %d: %w", userID, err)
		}
		// The duplicate may be the user row itself (concurrent /start), in
		// which case creation already happened; otherwise the referral code
		// collided and a fresh one is worth a retry.
		if exists, checkErr := s.Exists(userID); checkErr == nil && exists {
			return nil
		}
	}
	return fmt.Errorf("create user %d: referral code generation exhausted: %w", userID, err)
}

// creditReferrer resolves a referral code to its owner and credits the bonus.
// An unknown code is a no-op, not an error.
func creditReferrer(tx *gorm.DB, code string, amount int) error {
	var referrer models.User
	err := tx.Select("user_id").Where("referral_code = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&models.User{}).
		Where("user_id = ?", referrer.ID).
		UpdateColumn("coins", gorm.Expr("coins + ?", amount)).Error
}

// UpdateProfileField persists one profile field. Fields outside the closed
// enumeration are rejected; age is validated before it touches the row.
func (s *Store) UpdateProfileField(userID int64, field ProfileField, value interface{}) error {
	switch field {
	case FieldGender, FieldAge, FieldBio, FieldPhotoID, FieldLocation:
	default:
		return fmt.Errorf("update profile field %q: %w", field, ErrInvalidField)
	}
	if field == FieldAge {
		age, ok := value.(int)
		if !ok || !models.ValidAge(age) {
			return ErrInvalidAge
		}
	}

	result := s.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update(string(field), value)
	if result.Error != nil {
		return fmt.Errorf("update profile field %q for user %d: %w", field, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FullProfile is the joined users+profiles view rendered to users.
type FullProfile struct {
	UserID    int64   `json:"user_id"`
	Name      string  `json:"name"`
	Coins     int     `json:"coins"`
	IsPremium bool    `json:"is_premium"`
	Gender    *string `json:"gender"`
	Age       *int    `json:"age"`
	Bio       *string `json:"bio"`
	PhotoID   *string `json:"photo_id"`
	Location  *string `json:"location"`
}

func (s *Store) FullProfile(userID int64) (*FullProfile, error) {
	var fp FullProfile
	err := s.db.Model(&models.User{}).
		Select("users.user_id, users.name, users.coins, users.is_premium, profiles.gender, profiles.age, profiles.bio, profiles.photo_id, profiles.location").
		Joins("JOIN profiles ON profiles.user_id = users.user_id").
		Where("users.user_id = ?", userID).
		Scan(&fp).Error
	if err != nil {
		return nil, fmt.Errorf("load profile for user %d: %w", userID, err)
	}
	if fp.UserID == 0 {
		return nil, ErrUserNotFound
	}
	return &fp, nil
}

// SearchCandidates returns up to SearchLimit candidate ids matching the exact
// gender and inclusive age range, excluding the searcher and banned users.
// Order is randomized per call.
func (s *Store) SearchCandidates(excludeUserID int64, gender string, minAge, maxAge int) ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.Profile{}).
		Joins("JOIN users ON users.user_id = profiles.user_id").
		Where("profiles.gender = ?", gender).
		Where("profiles.age BETWEEN ? AND ?", minAge, maxAge).
		Where("profiles.user_id <> ?", excludeUserID).
		Where("users.is_banned = ?", false).
		Order("RANDOM()").
		Limit(SearchLimit).
		Pluck("profiles.user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	return ids, nil
}

// UserSummary is the admin listing row.
type UserSummary struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	IsBanned bool   `json:"is_banned"`
}

func (s *Store) ListUsers() ([]UserSummary, error) {
	var users []UserSummary
	err := s.db.Model(&models.User{}).
		Select("user_id, name, is_banned").
		Order("created_at DESC").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) ReferralCode(userID int64) (string, error) {
	var user models.User
	err := s.db.Select("referral_code").Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load referral code for user %d: %w", userID, err)
	}
	return user.ReferralCode, nil
}

// CountReferrals counts users whose referred_by equals this user's code.
func (s *Store) CountReferrals(userID int64) (int64, error) {
	code, err := s.ReferralCode(userID)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.Model(&models.User{}).Where("referred_by = ?", code).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count referrals for user %d: %w", userID, err)
	}
	return count, nil
}

// RecordLike inserts the directed like edge. A repeat like on the same pair
// is swallowed by the conflict clause.
func (s *Store) RecordLike(likerID, likedID int64) error {
	like := models.Like{LikerID: likerID, LikedID: likedID}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
	if err != nil {
		return fmt.Errorf("record like %d -> %d: %w", likerID, likedID, err)
	}
	return nil
}
