package services

import (
	"errors"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"gorm.io/gorm"
)

// InterfaceCallRecordService 定义通话记录服务接口
type InterfaceCallRecordService interface {
	GetCallRecords(deviceID uint, callType int, keyword string, page, pageSize int) ([]models.CallRecord, int64, error)
	MarkRead(id uint) error
	SoftDeleteCallRecord(id uint) error
	DeleteCallRecord(id uint) error
}

// CallRecordService 提供通话记录的读侧服务
type CallRecordService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewCallRecordService 创建一个新的通话记录服务
func NewCallRecordService(db *gorm.DB, cfg *config.Config) InterfaceCallRecordService {
	return &CallRecordService{
		DB:     db,
		Config: cfg,
	}
}

// GetCallRecords 分页查询通话记录，按设备时间倒序。deviceID为0时跨全部设备查询。
func (s *CallRecordService) GetCallRecords(deviceID uint, callType int, keyword string, page, pageSize int) ([]models.CallRecord, int64, error) {
	query := s.DB.Model(&models.CallRecord{})
	if deviceID != 0 {
		query = query.Where("device_id = ?", deviceID)
	}
	if callType != models.CallTypeAll {
		query = query.Where("type = ?", callType)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("phone_number LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.CallRecord
	offset := (page - 1) * pageSize
	if err := query.Order("device_time DESC").Limit(pageSize).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// MarkRead 标记通话记录为已读
func (s *CallRecordService) MarkRead(id uint) error {
	result := s.DB.Model(&models.CallRecord{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("通话记录不存在")
	}
	return nil
}

// SoftDeleteCallRecord 软删除通话记录，保留在库中参与同步去重
func (s *CallRecordService) SoftDeleteCallRecord(id uint) error {
	result := s.DB.Delete(&models.CallRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("通话记录不存在")
	}
	return nil
}

// DeleteCallRecord 物理删除通话记录
func (s *CallRecordService) DeleteCallRecord(id uint) error {
	result := s.DB.Unscoped().Delete(&models.CallRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("通话记录不存在")
	}
	return nil
}
