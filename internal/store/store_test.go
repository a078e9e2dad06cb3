package store

import (
	"errors"
	"testing"

	"github.com/amora-app/amora-bot/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Like{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	return New(newTestDB(t), 100, 50)
}

func coins(t *testing.T, s *Store, userID int64) int {
	t.Helper()
	var user models.User
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		t.Fatalf("load user %d: %v", userID, err)
	}
	return user.Coins
}

// seedProfile creates a user and fills in the searchable fields.
func seedProfile(t *testing.T, s *Store, userID int64, gender string, age int) {
	t.Helper()
	if err := s.Create(userID, "user", ""); err != nil {
		t.Fatalf("create user %d: %v", userID, err)
	}
	if err := s.UpdateProfileField(userID, FieldGender, gender); err != nil {
		t.Fatalf("set gender: %v", err)
	}
	if err := s.UpdateProfileField(userID, FieldAge, age); err != nil {
		t.Fatalf("set age: %v", err)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Alice", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.Create(1, "Alice again", ""); err != nil {
		t.Fatalf("second create should be a no-op: %v", err)
	}

	var count int64
	s.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user count = %d, want 1", count)
	}
	if got := coins(t, s, 1); got != 100 {
		t.Fatalf("starting coins = %d, want 100", got)
	}
}

func TestCreateSeedsEmptyProfile(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	fp, err := s.FullProfile(1)
	if err != nil {
		t.Fatalf("full profile: %v", err)
	}
	if fp.Gender != nil || fp.Age != nil || fp.Bio != nil || fp.PhotoID != nil || fp.Location != nil {
		t.Fatalf("new profile should have no fields set: %+v", fp)
	}
}

func TestCreateGrantsReferralBonusOnce(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Referrer", ""); err != nil {
		t.Fatalf("create referrer: %v", err)
	}
	code, err := s.ReferralCode(1)
	if err != nil {
		t.Fatalf("referral code: %v", err)
	}

	if err := s.Create(2, "Referred", code); err != nil {
		t.Fatalf("create referred: %v", err)
	}
	if got := coins(t, s, 1); got != 150 {
		t.Fatalf("referrer coins = %d, want 150", got)
	}

	// A duplicate create must not credit again.
	if err := s.Create(2, "Referred", code); err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if got := coins(t, s, 1); got != 150 {
		t.Fatalf("referrer coins after repeat create = %d, want 150", got)
	}

	n, err := s.CountReferrals(1)
	if err != nil {
		t.Fatalf("count referrals: %v", err)
	}
	if n != 1 {
		t.Fatalf("referral count = %d, want 1", n)
	}
}

func TestCreateWithUnknownReferralCodeStillSucceeds(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Other", ""); err != nil {
		t.Fatalf("create bystander: %v", err)
	}

	if err := s.Create(2, "Referred", "deadbeef"); err != nil {
		t.Fatalf("create with stale code: %v", err)
	}
	exists, err := s.Exists(2)
	if err != nil || !exists {
		t.Fatalf("user should exist: exists=%v err=%v", exists, err)
	}
	if got := coins(t, s, 1); got != 100 {
		t.Fatalf("bystander coins = %d, want 100 (no credit anywhere)", got)
	}
}

func TestCreateRetriesOnReferralCodeCollision(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "First", ""); err != nil {
		t.Fatalf("create first: %v", err)
	}
	taken, err := s.ReferralCode(1)
	if err != nil {
		t.Fatalf("referral code: %v", err)
	}

	calls := 0
	s.newCode = func() string {
		calls++
		if calls == 1 {
			return taken
		}
		return "fresh123"
	}

	if err := s.Create(2, "Second", ""); err != nil {
		t.Fatalf("create should survive one collision: %v", err)
	}
	code, err := s.ReferralCode(2)
	if err != nil {
		t.Fatalf("referral code: %v", err)
	}
	if code != "fresh123" {
		t.Fatalf("code = %q, want the regenerated one", code)
	}
}

func TestUpdateProfileFieldRejectsUnknownField(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.UpdateProfileField(1, ProfileField("coins"), 9999)
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("err = %v, want ErrInvalidField", err)
	}
}

func TestUpdateProfileFieldValidatesAge(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, bad := range []interface{}{17, 100, -1, "25"} {
		if err := s.UpdateProfileField(1, FieldAge, bad); !errors.Is(err, ErrInvalidAge) {
			t.Fatalf("age %v: err = %v, want ErrInvalidAge", bad, err)
		}
	}

	fp, err := s.FullProfile(1)
	if err != nil {
		t.Fatalf("full profile: %v", err)
	}
	if fp.Age != nil {
		t.Fatalf("rejected ages must not persist, got %d", *fp.Age)
	}

	if err := s.UpdateProfileField(1, FieldAge, 25); err != nil {
		t.Fatalf("valid age: %v", err)
	}
	fp, _ = s.FullProfile(1)
	if fp.Age == nil || *fp.Age != 25 {
		t.Fatalf("age not persisted, got %+v", fp.Age)
	}
}

func TestUpdateProfileFieldUnknownUser(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateProfileField(42, FieldBio, "hi"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSearchExcludesSearcherAndBanned(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, 1, models.GenderFemale, 25) // the searcher
	seedProfile(t, s, 2, models.GenderFemale, 25)
	seedProfile(t, s, 3, models.GenderFemale, 30)
	seedProfile(t, s, 4, models.GenderMale, 25)  // wrong gender
	seedProfile(t, s, 5, models.GenderFemale, 40) // out of range
	seedProfile(t, s, 6, models.GenderFemale, 25) // will be banned

	ledger := NewLedger(s.db)
	if err := ledger.SetBanned(6, true); err != nil {
		t.Fatalf("ban: %v", err)
	}

	ids, err := s.SearchCandidates(1, models.GenderFemale, 18, 35)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	got := make(map[int64]bool, len(ids))
	for _, id := range ids {
		got[id] = true
	}
	if got[1] {
		t.Fatal("search returned the searcher")
	}
	if got[6] {
		t.Fatal("search returned a banned user")
	}
	if got[4] || got[5] {
		t.Fatalf("search ignored its filters: %v", ids)
	}
	if !got[2] || !got[3] {
		t.Fatalf("expected candidates 2 and 3, got %v", ids)
	}
}

func TestSearchCapsResults(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, 1, models.GenderMale, 30)
	for id := int64(2); id <= 31; id++ {
		seedProfile(t, s, id, models.GenderFemale, 25)
	}

	ids, err := s.SearchCandidates(1, models.GenderFemale, 18, 35)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != SearchLimit {
		t.Fatalf("result size = %d, want %d", len(ids), SearchLimit)
	}
}

func TestSearchInclusiveAgeBounds(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, 1, models.GenderMale, 30)
	seedProfile(t, s, 2, models.GenderFemale, 20)
	seedProfile(t, s, 3, models.GenderFemale, 30)

	ids, err := s.SearchCandidates(1, models.GenderFemale, 20, 30)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("both boundary ages should match, got %v", ids)
	}
}

func TestRecordLikeIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedProfile(t, s, 1, models.GenderMale, 30)
	seedProfile(t, s, 2, models.GenderFemale, 25)

	if err := s.RecordLike(1, 2); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := s.RecordLike(1, 2); err != nil {
		t.Fatalf("repeat like must not fail: %v", err)
	}

	var count int64
	s.db.Model(&models.Like{}).Count(&count)
	if count != 1 {
		t.Fatalf("like count = %d, want 1", count)
	}

	// The reverse direction is a distinct edge.
	if err := s.RecordLike(2, 1); err != nil {
		t.Fatalf("reverse like: %v", err)
	}
	s.db.Model(&models.Like{}).Count(&count)
	if count != 2 {
		t.Fatalf("like count = %d, want 2", count)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(1, "Alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(2, "Bob", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := NewLedger(s.db).SetBanned(2, true); err != nil {
		t.Fatalf("ban: %v", err)
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("user count = %d, want 2", len(users))
	}
	byID := make(map[int64]UserSummary)
	for _, u := range users {
		byID[u.UserID] = u
	}
	if byID[1].Name != "Alice" || byID[1].IsBanned {
		t.Fatalf("unexpected summary for Alice: %+v", byID[1])
	}
	if !byID[2].IsBanned {
		t.Fatalf("Bob should be listed as banned: %+v", byID[2])
	}
}

func TestIsBannedUnknownUser(t *testing.T) {
	s := newTestStore(t)
	banned, err := s.IsBanned(404)
	if err != nil {
		t.Fatalf("is banned: %v", err)
	}
	if banned {
		t.Fatal("unknown user reported as banned")
	}
}

func TestFullProfileUnknownUser(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FullProfile(404); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
