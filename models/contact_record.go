package models

import (
	"time"
)

// ContactRecord represents one contact per (device, phone number).
// IsShadow 标记占位联系人：仅为了让短信/通话记录能关联到名称而自动创建，
// 同步到真实联系人后原地提升为非占位记录。
type ContactRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DeviceID    uint   `gorm:"uniqueIndex:idx_contact_natural;not null" json:"device_id"`
	PhoneNumber string `gorm:"type:varchar(30);uniqueIndex:idx_contact_natural;not null" json:"phone_number"`
	Name        string `gorm:"type:varchar(50)" json:"name"`
	IsShadow    bool   `gorm:"default:false" json:"is_shadow"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
