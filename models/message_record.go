package models

import (
	"time"

	"gorm.io/gorm"
)

// 短信方向，与设备代理的取值保持一致
const (
	MessageTypeAll      = 0 // 仅用于查询过滤
	MessageTypeReceived = 1
	MessageTypeSent     = 2
)

// MessageRecord represents one SMS mirrored from a device.
// 自然键为 (device_id, phone_number, device_time, type)，同步去重依赖该唯一索引。
type MessageRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DeviceID    uint   `gorm:"uniqueIndex:idx_message_natural;not null" json:"device_id"`
	PhoneNumber string `gorm:"type:varchar(30);uniqueIndex:idx_message_natural;not null" json:"phone_number"`
	Name        string `gorm:"type:varchar(50)" json:"name"`
	Content     string `gorm:"type:text" json:"content"`
	Type        int    `gorm:"uniqueIndex:idx_message_natural;not null" json:"type"` // 1接收 2发送
	SimSlot     int    `json:"sim_slot"`
	// DeviceTime 设备侧时间戳（毫秒），非本地接收时间
	DeviceTime int64 `gorm:"uniqueIndex:idx_message_natural;not null" json:"device_time"`
	Read       bool  `gorm:"default:false" json:"read"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
