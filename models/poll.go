package models

import (
	"time"
)

// User 投票创建者和投票人
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Poll 投票活动模型
type Poll struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Options     []Option  `gorm:"foreignKey:PollID;constraint:OnDelete:RESTRICT" json:"options,omitempty"`
	Votes       []Vote    `gorm:"foreignKey:PollID;constraint:OnDelete:RESTRICT" json:"votes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Option 投票选项模型，只随投票一起创建
type Option struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	PollID    uint      `gorm:"not null;index" json:"poll_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote 投票记录模型，创建后不可修改
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	PollID    uint      `gorm:"not null;index" json:"poll_id"`
	Poll      *Poll     `gorm:"foreignKey:PollID;constraint:OnDelete:RESTRICT" json:"poll,omitempty"`
	OptionID  uint      `gorm:"not null;index" json:"option_id"`
	Option    *Option   `gorm:"foreignKey:OptionID;constraint:OnDelete:RESTRICT" json:"option,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
