package models

import (
	"time"
)

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Content     string    `gorm:"size:1000;not null" json:"content"`
	MediaURL    string    `gorm:"size:500" json:"mediaUrl"`
	MediaType   string    `gorm:"size:50" json:"mediaType"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      uint      `gorm:"not null;index" json:"userId"` // set once at creation
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	IsAvailable bool      `gorm:"not null;default:true" json:"isAvailable"`
}
