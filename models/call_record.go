package models

import (
	"time"

	"gorm.io/gorm"
)

// 通话类型，与设备代理的取值保持一致
const (
	CallTypeAll      = 0 // 仅用于查询过滤
	CallTypeIncoming = 1
	CallTypeOutgoing = 2
	CallTypeMissed   = 3
)

// CallRecord represents one call log entry mirrored from a device.
// 自然键与短信记录同构：(device_id, phone_number, device_time, type)。
type CallRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DeviceID    uint   `gorm:"uniqueIndex:idx_call_natural;not null" json:"device_id"`
	PhoneNumber string `gorm:"type:varchar(30);uniqueIndex:idx_call_natural;not null" json:"phone_number"`
	Name        string `gorm:"type:varchar(50)" json:"name"`
	Type        int    `gorm:"uniqueIndex:idx_call_natural;not null" json:"type"` // 1呼入 2呼出 3未接，其余取值原样保存
	Duration    int    `json:"duration"`                                          // 通话时长（秒）
	SimSlot     int    `json:"sim_slot"`
	DeviceTime  int64  `gorm:"uniqueIndex:idx_call_natural;not null" json:"device_time"`
	Read        bool   `gorm:"default:false" json:"read"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
