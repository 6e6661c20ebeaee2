package models

import "time"

// UserProfile 用户信用点账本记录（身份由外部认证服务提供，这里只认 user_id）
type UserProfile struct {
	UserID      string    `gorm:"primaryKey;type:varchar(128)" json:"userId"`
	DisplayName string    `json:"displayName"`
	Credits     int64     `json:"credits"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}
