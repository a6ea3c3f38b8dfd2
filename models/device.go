package models

import (
	"time"
)

// DeviceStatus represents the reachability of a managed phone
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

// Device represents a managed Android phone running the forwarder agent.
// AgentURL 和 SecretKey 由设备管理端维护；状态/电量等字段由轮询和同步写回。
type Device struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null" json:"name"`
	// Remark 用户备注，仅由管理端修改，后台任务不得覆盖
	Remark string `gorm:"type:varchar(200)" json:"remark"`
	// AgentURL 设备代理的基础地址，如 http://192.168.1.20:5000
	AgentURL string `gorm:"type:varchar(200);not null" json:"agent_url"`
	// SecretKey 预共享AES密钥，32个十六进制字符（16字节）
	SecretKey string       `gorm:"type:varchar(32);not null" json:"secret_key"`
	Status    DeviceStatus `gorm:"type:varchar(20);default:'offline'" json:"status"`

	// 以下字段为设备上报的描述信息，由状态轮询写回
	DeviceMark     string     `gorm:"type:varchar(100)" json:"device_mark"`
	Sim1           string     `gorm:"type:varchar(100)" json:"sim1"`
	Sim2           string     `gorm:"type:varchar(100)" json:"sim2"`
	BatteryLevel   string     `gorm:"type:varchar(10)" json:"battery_level"`
	BatteryStatus  string     `gorm:"type:varchar(20)" json:"battery_status"`
	BatteryPlugged string     `gorm:"type:varchar(20)" json:"battery_plugged"`
	LastSeenAt     *time.Time `json:"last_seen_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Messages []MessageRecord `gorm:"foreignKey:DeviceID" json:"messages,omitempty"`
	Calls    []CallRecord    `gorm:"foreignKey:DeviceID" json:"calls,omitempty"`
	Contacts []ContactRecord `gorm:"foreignKey:DeviceID" json:"contacts,omitempty"`
}
