package models

import "time"

// Like is a directed edge from the liker to the liked profile. The composite
// primary key gives at most one edge per ordered pair; inserts are
// ignore-on-conflict so a repeat like neither fails nor duplicates.
type Like struct {
	LikerID   int64     `gorm:"primaryKey;autoIncrement:false" json:"liker_id"`
	LikedID   int64     `gorm:"primaryKey;autoIncrement:false" json:"liked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}
