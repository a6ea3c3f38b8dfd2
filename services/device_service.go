package services

import (
	"errors"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/utils"
	"gorm.io/gorm"
)

// InterfaceDeviceService defines the device service interface
type InterfaceDeviceService interface {
	GetAllDevices(page, pageSize int) ([]models.Device, int64, error)
	GetDeviceByID(id uint) (*models.Device, error)
	CreateDevice(device *models.Device) error
	UpdateDevice(id uint, updates map[string]interface{}) (*models.Device, error)
	DeleteDevice(id uint) error
}

// DeviceService 提供设备相关的服务
type DeviceService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewDeviceService 创建一个新的设备服务
func NewDeviceService(db *gorm.DB, cfg *config.Config) InterfaceDeviceService {
	return &DeviceService{
		DB:     db,
		Config: cfg,
	}
}

// GetAllDevices 获取设备列表，支持分页
func (s *DeviceService) GetAllDevices(page, pageSize int) ([]models.Device, int64, error) {
	var devices []models.Device
	var total int64

	if err := s.DB.Model(&models.Device{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Limit(pageSize).Offset(offset).Order("id").Find(&devices).Error; err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}

// GetDeviceByID 根据ID获取设备
func (s *DeviceService) GetDeviceByID(id uint) (*models.Device, error) {
	var device models.Device
	if err := s.DB.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}

	return &device, nil
}

// CreateDevice 创建新设备
func (s *DeviceService) CreateDevice(device *models.Device) error {
	// 密钥必须是合法的16字节十六进制，创建时就挡住配置错误
	if err := validateSecretKey(device.SecretKey); err != nil {
		return err
	}
	if device.AgentURL == "" {
		return errors.New("设备地址不能为空")
	}

	// 验证密钥唯一性
	var count int64
	if err := s.DB.Model(&models.Device{}).Where("secret_key = ?", device.SecretKey).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("设备密钥已存在")
	}

	// 设置默认状态
	if device.Status == "" {
		device.Status = models.DeviceStatusOffline
	}

	return s.DB.Create(device).Error
}

// UpdateDevice 更新设备信息
func (s *DeviceService) UpdateDevice(id uint, updates map[string]interface{}) (*models.Device, error) {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新密钥，需要检查格式和唯一性
	if secretKey, ok := updates["secret_key"].(string); ok && secretKey != device.SecretKey {
		if err := validateSecretKey(secretKey); err != nil {
			return nil, err
		}
		var count int64
		if err := s.DB.Model(&models.Device{}).Where("secret_key = ? AND id != ?", secretKey, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("设备密钥已存在")
		}
	}

	if err := s.DB.Model(device).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 重新获取更新后的设备信息
	return s.GetDeviceByID(id)
}

// DeleteDevice 删除设备及其镜像数据
func (s *DeviceService) DeleteDevice(id uint) error {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return err
	}

	// 连同该设备的短信/通话/联系人镜像一并物理删除
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("device_id = ?", id).Delete(&models.MessageRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("device_id = ?", id).Delete(&models.CallRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id = ?", id).Delete(&models.ContactRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(device).Error
	})
}

// validateSecretKey 借用报文编解码的密钥规则校验预共享密钥
func validateSecretKey(secretKey string) error {
	if _, err := utils.EncryptPayload(secretKey, []byte("ping")); err != nil {
		return utils.ErrInvalidKey
	}
	return nil
}
