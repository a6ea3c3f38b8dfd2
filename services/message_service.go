package services

import (
	"errors"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"gorm.io/gorm"
)

// InterfaceMessageService 定义短信记录服务接口
type InterfaceMessageService interface {
	GetMessages(deviceID uint, msgType int, keyword string, page, pageSize int) ([]models.MessageRecord, int64, error)
	MarkRead(id uint) error
	SoftDeleteMessage(id uint) error
	DeleteMessage(id uint) error
	SendMessage(device *models.Device, simSlot int, numbers []string, content string) error
}

// MessageService 提供短信记录的读侧服务。
// 记录只由同步引擎创建，这里只做查询、标记已读和删除。
type MessageService struct {
	DB     *gorm.DB
	Config *config.Config
	Client InterfaceDeviceClient
}

// NewMessageService 创建一个新的短信服务
func NewMessageService(db *gorm.DB, cfg *config.Config, client InterfaceDeviceClient) InterfaceMessageService {
	return &MessageService{
		DB:     db,
		Config: cfg,
		Client: client,
	}
}

// GetMessages 分页查询短信，按设备时间倒序。
// deviceID为0时跨全部设备查询，msgType为0时不过滤方向，keyword匹配号码或内容。
func (s *MessageService) GetMessages(deviceID uint, msgType int, keyword string, page, pageSize int) ([]models.MessageRecord, int64, error) {
	query := s.DB.Model(&models.MessageRecord{})
	if deviceID != 0 {
		query = query.Where("device_id = ?", deviceID)
	}
	if msgType != models.MessageTypeAll {
		query = query.Where("type = ?", msgType)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("phone_number LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.MessageRecord
	offset := (page - 1) * pageSize
	if err := query.Order("device_time DESC").Limit(pageSize).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// MarkRead 标记短信为已读
func (s *MessageService) MarkRead(id uint) error {
	result := s.DB.Model(&models.MessageRecord{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("短信记录不存在")
	}
	return nil
}

// SoftDeleteMessage 软删除短信。记录保留在库中参与同步去重，
// 下次同步不会让它复活。
func (s *MessageService) SoftDeleteMessage(id uint) error {
	result := s.DB.Delete(&models.MessageRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("短信记录不存在")
	}
	return nil
}

// DeleteMessage 物理删除短信。删除后同一条短信可能被下次同步重新拉回。
func (s *MessageService) DeleteMessage(id uint) error {
	result := s.DB.Unscoped().Delete(&models.MessageRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("短信记录不存在")
	}
	return nil
}

// SendMessage 通过设备代理发送短信
func (s *MessageService) SendMessage(device *models.Device, simSlot int, numbers []string, content string) error {
	if len(numbers) == 0 {
		return errors.New("收件号码不能为空")
	}
	if content == "" {
		return errors.New("短信内容不能为空")
	}
	return s.Client.SendMessage(device, simSlot, numbers, content)
}
