package services

import (
	"errors"

	"github.com/solywsh/smserver-sub000/models"
	"gorm.io/gorm"
)

// InterfaceSyncRepository 同步引擎使用的持久化原语
type InterfaceSyncRepository interface {
	MessageExists(deviceID uint, phoneNumber string, deviceTime int64, msgType int) (bool, error)
	CallExists(deviceID uint, phoneNumber string, deviceTime int64, callType int) (bool, error)
	InsertMessages(records []models.MessageRecord) error
	InsertCalls(records []models.CallRecord) error
	HasContacts(deviceID uint) (bool, error)
	FindContactByNumber(deviceID uint, phoneNumber string) (*models.ContactRecord, error)
	CreateContact(record *models.ContactRecord) error
	UpdateContactColumns(id uint, updates map[string]interface{}) error
}

// SyncRepository 基于GORM的实现
type SyncRepository struct {
	DB *gorm.DB
}

// NewSyncRepository 创建一个新的同步存储
func NewSyncRepository(db *gorm.DB) InterfaceSyncRepository {
	return &SyncRepository{DB: db}
}

// MessageExists 按自然键检查短信是否已存在。
// 必须使用Unscoped包含软删除行：用户删除过的记录不能在下次同步时复活。
func (r *SyncRepository) MessageExists(deviceID uint, phoneNumber string, deviceTime int64, msgType int) (bool, error) {
	var count int64
	err := r.DB.Unscoped().Model(&models.MessageRecord{}).
		Where("device_id = ? AND phone_number = ? AND device_time = ? AND type = ?",
			deviceID, phoneNumber, deviceTime, msgType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CallExists 按自然键检查通话记录是否已存在，同样包含软删除行
func (r *SyncRepository) CallExists(deviceID uint, phoneNumber string, deviceTime int64, callType int) (bool, error) {
	var count int64
	err := r.DB.Unscoped().Model(&models.CallRecord{}).
		Where("device_id = ? AND phone_number = ? AND device_time = ? AND type = ?",
			deviceID, phoneNumber, deviceTime, callType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMessages 整页批量插入短信记录
func (r *SyncRepository) InsertMessages(records []models.MessageRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.Create(&records).Error
}

// InsertCalls 整页批量插入通话记录
func (r *SyncRepository) InsertCalls(records []models.CallRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.Create(&records).Error
}

// HasContacts 判断设备是否已有任何联系人记录
func (r *SyncRepository) HasContacts(deviceID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.ContactRecord{}).
		Where("device_id = ?", deviceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindContactByNumber 按 (设备, 号码) 查找联系人，未找到时返回nil而非错误
func (r *SyncRepository) FindContactByNumber(deviceID uint, phoneNumber string) (*models.ContactRecord, error) {
	var record models.ContactRecord
	err := r.DB.Where("device_id = ? AND phone_number = ?", deviceID, phoneNumber).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateContact 插入联系人记录
func (r *SyncRepository) CreateContact(record *models.ContactRecord) error {
	return r.DB.Create(record).Error
}

// UpdateContactColumns 按列集合更新联系人，避免整行覆盖
func (r *SyncRepository) UpdateContactColumns(id uint, updates map[string]interface{}) error {
	return r.DB.Model(&models.ContactRecord{}).Where("id = ?", id).Updates(updates).Error
}
