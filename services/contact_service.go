package services

import (
	"errors"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"gorm.io/gorm"
)

// InterfaceContactService 定义联系人服务接口
type InterfaceContactService interface {
	GetContacts(deviceID uint, keyword string, page, pageSize int) ([]models.ContactRecord, int64, error)
	AddContact(device *models.Device, name, phoneNumber string) (*models.ContactRecord, error)
}

// ContactService 提供联系人的读侧服务和手工添加
type ContactService struct {
	DB     *gorm.DB
	Config *config.Config
	Client InterfaceDeviceClient
	Repo   InterfaceSyncRepository
}

// NewContactService 创建一个新的联系人服务
func NewContactService(db *gorm.DB, cfg *config.Config, client InterfaceDeviceClient, repo InterfaceSyncRepository) InterfaceContactService {
	return &ContactService{
		DB:     db,
		Config: cfg,
		Client: client,
		Repo:   repo,
	}
}

// GetContacts 分页查询联系人。deviceID为0时跨全部设备查询。
func (s *ContactService) GetContacts(deviceID uint, keyword string, page, pageSize int) ([]models.ContactRecord, int64, error) {
	query := s.DB.Model(&models.ContactRecord{})
	if deviceID != 0 {
		query = query.Where("device_id = ?", deviceID)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("phone_number LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.ContactRecord
	offset := (page - 1) * pageSize
	if err := query.Order("name").Limit(pageSize).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// AddContact 先写入手机通讯录，成功后在本地落一条真实联系人记录。
// 该号码已有占位记录时原地提升，与联系人同步的去重规则一致。
func (s *ContactService) AddContact(device *models.Device, name, phoneNumber string) (*models.ContactRecord, error) {
	if phoneNumber == "" {
		return nil, errors.New("号码不能为空")
	}
	if name == "" {
		name = phoneNumber
	}

	// 设备写入失败时不动本地库，保持与手机一致
	if err := s.Client.AddContact(device, name, phoneNumber); err != nil {
		return nil, err
	}

	existing, err := s.Repo.FindContactByNumber(device.ID, phoneNumber)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		updates := map[string]interface{}{
			"name":      name,
			"is_shadow": false,
		}
		if err := s.Repo.UpdateContactColumns(existing.ID, updates); err != nil {
			return nil, err
		}
		existing.Name = name
		existing.IsShadow = false
		return existing, nil
	}

	record := &models.ContactRecord{
		DeviceID:    device.ID,
		PhoneNumber: phoneNumber,
		Name:        name,
		IsShadow:    false,
	}
	if err := s.Repo.CreateContact(record); err != nil {
		return nil, err
	}
	return record, nil
}
