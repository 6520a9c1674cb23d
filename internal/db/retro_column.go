package db

import "time"

type RetroColumn struct {
	ID             uint        `gorm:"primaryKey"`
	RetroMeetingID uint        `gorm:"index;not null"`
	Title          string      `gorm:"size:200;not null"`
	Order          int         `gorm:"column:sort_order;not null;default:0"`
	CreatedAt      time.Time   `gorm:"not null"`
	UpdatedAt      time.Time   `gorm:"not null"`
	Items          []RetroItem `gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE"`
}
