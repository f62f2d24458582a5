package models

import "time"

type Store struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"type:varchar(200);not null"`
	Domain string `gorm:"type:varchar(200);not null;uniqueIndex"`
	// AccessToken authenticates fetches against the external store API.
	AccessToken string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Store) TableName() string {
	return "stores"
}
