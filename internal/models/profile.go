package models

// Gender values accepted by the profile dialogue.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Age bounds enforced before anything is persisted.
const (
	MinAge = 18
	MaxAge = 99
)

func ValidGender(s string) bool {
	return s == GenderMale || s == GenderFemale || s == GenderOther
}

func ValidAge(n int) bool {
	return n >= MinAge && n <= MaxAge
}

// Profile holds the dating profile, one row per user, filled in one field
// per dialogue step. Fields stay nil until collected.
type Profile struct {
	UserID   int64   `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	Gender   *string `gorm:"size:10" json:"gender,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Bio      *string `gorm:"type:text" json:"bio,omitempty"`
	PhotoID  *string `gorm:"size:255" json:"photo_id,omitempty"`
	Location *string `gorm:"size:255" json:"location,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}
