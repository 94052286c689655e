package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	Email             string          `json:"email,omitempty"`
	Description       string          `json:"description"`
	Location          string          `json:"location"`
	SkillSets         []string        `gorm:"type:text;serializer:json" json:"skill_sets"`
	Availability      string          `json:"availability"`
	AvatarURL         string          `json:"avatar_url"`
	IsProfileComplete bool            `gorm:"not null;default:false" json:"is_profile_complete"`
	TimeBalance       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"time_balance"`
	PushToken         string          `json:"-"`
	Version           uint            `gorm:"not null;default:1" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
}

