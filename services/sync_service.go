package services

import (
	"github.com/google/uuid"
	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
)

const (
	syncPageSize = 50
	// 页数上限是防止异常代理数据造成死循环的保险丝
	syncMaxPages = 100
)

// 代理侧表示"未知来电者"的占位名称，建联系人时回退为号码本身，
// 避免把“未知”当作联系人姓名存进库里
var unknownNamePlaceholders = map[string]bool{
	"":        true,
	"null":    true,
	"unknown": true,
	"Unknown": true,
	"未知":      true,
	"未知号码":    true,
}

// Logger 同步与轮询依赖的日志接口，测试中可注入替身
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// appLogger 默认实现，委托给config包的全局日志
type appLogger struct{}

func (appLogger) Info(format string, v ...interface{})    { config.Info(format, v...) }
func (appLogger) Warning(format string, v ...interface{}) { config.Warning(format, v...) }
func (appLogger) Error(format string, v ...interface{})   { config.Error(format, v...) }

// SyncNotifier 同步完成后的通知出口（MQTT推送），可为空
type SyncNotifier interface {
	PublishSyncResult(deviceID uint, kind string, result models.SyncResult)
}

// InterfaceSyncService 定义同步服务接口
type InterfaceSyncService interface {
	SyncMessages(device *models.Device, msgType int) (models.SyncResult, error)
	SyncCalls(device *models.Device, callType int) (models.SyncResult, error)
	SyncContacts(device *models.Device) (models.SyncResult, error)
	SyncMessagesAsync(device *models.Device, msgType int)
	SyncCallsAsync(device *models.Device, callType int)
	SyncContactsAsync(device *models.Device)
}

// SyncService 增量同步引擎：从设备代理拉取短信/通话/联系人并合并入库
type SyncService struct {
	Repo     InterfaceSyncRepository
	Client   InterfaceDeviceClient
	Config   *config.Config
	Logger   Logger
	Notifier SyncNotifier // 可为nil，未配置MQTT时不推送
}

// NewSyncService 创建一个新的同步服务
func NewSyncService(repo InterfaceSyncRepository, client InterfaceDeviceClient, cfg *config.Config, logger Logger, notifier SyncNotifier) InterfaceSyncService {
	if logger == nil {
		logger = appLogger{}
	}
	return &SyncService{
		Repo:     repo,
		Client:   client,
		Config:   cfg,
		Logger:   logger,
		Notifier: notifier,
	}
}

// SyncMessages 同步短信。msgType为0时对接收/发送各跑一遍独立的增量拉取，
// 计数相加，Complete取两遍的逻辑与。
func (s *SyncService) SyncMessages(device *models.Device, msgType int) (models.SyncResult, error) {
	s.seedContacts(device)

	result := models.SyncResult{Complete: true}
	types := []int{msgType}
	if msgType == models.MessageTypeAll {
		types = []int{models.MessageTypeReceived, models.MessageTypeSent}
	}

	for _, t := range types {
		pass, err := s.syncMessagePass(device, t)
		result.Merge(pass)
		if err != nil {
			// 传输/解密错误立即中止，已入库的部分仍然有效
			return result, err
		}
	}

	s.notify(device.ID, "sms", result)
	return result, nil
}

// SyncCalls 同步通话记录。callType为0时对呼入/呼出/未接各跑一遍。
func (s *SyncService) SyncCalls(device *models.Device, callType int) (models.SyncResult, error) {
	s.seedContacts(device)

	result := models.SyncResult{Complete: true}
	types := []int{callType}
	if callType == models.CallTypeAll {
		types = []int{models.CallTypeIncoming, models.CallTypeOutgoing, models.CallTypeMissed}
	}

	for _, t := range types {
		pass, err := s.syncCallPass(device, t)
		result.Merge(pass)
		if err != nil {
			return result, err
		}
	}

	s.notify(device.ID, "call", result)
	return result, nil
}

// SyncContacts 全量同步联系人。代理端一次性返回全部数据，不分页。
// 已有记录名称变化或为占位记录时原地更新并去掉占位标记。
func (s *SyncService) SyncContacts(device *models.Device) (models.SyncResult, error) {
	result := models.SyncResult{}

	items, err := s.Client.QueryContacts(device)
	if err != nil {
		return result, err
	}

	for _, item := range items {
		if item.Number == "" {
			continue
		}
		name := contactDisplayName(item.Number, item.Name)

		existing, err := s.Repo.FindContactByNumber(device.ID, item.Number)
		if err != nil {
			return result, err
		}

		if existing == nil {
			record := &models.ContactRecord{
				DeviceID:    device.ID,
				PhoneNumber: item.Number,
				Name:        name,
				IsShadow:    false,
			}
			if err := s.Repo.CreateContact(record); err != nil {
				s.Logger.Error("插入联系人失败 device=%d number=%s: %v", device.ID, item.Number, err)
				continue
			}
			result.NewCount++
			continue
		}

		// 占位记录提升为真实联系人；真实记录仅在名称变化时更新
		if existing.IsShadow || existing.Name != name {
			updates := map[string]interface{}{
				"name":      name,
				"is_shadow": false,
			}
			if err := s.Repo.UpdateContactColumns(existing.ID, updates); err != nil {
				s.Logger.Error("更新联系人失败 device=%d number=%s: %v", device.ID, item.Number, err)
				continue
			}
			result.UpdatedCount++
		}
	}

	result.Complete = true
	s.notify(device.ID, "contact", result)
	return result, nil
}

// SyncMessagesAsync 后台短信同步，调用方不等待结果
func (s *SyncService) SyncMessagesAsync(device *models.Device, msgType int) {
	taskID := uuid.New().String()[:8]
	go func() {
		result, err := s.SyncMessages(device, msgType)
		if err != nil {
			s.Logger.Error("[sync:%s] 后台短信同步失败 device=%d: %v", taskID, device.ID, err)
			return
		}
		s.Logger.Info("[sync:%s] 后台短信同步完成 device=%d 新增=%d", taskID, device.ID, result.NewCount)
	}()
}

// SyncCallsAsync 后台通话记录同步
func (s *SyncService) SyncCallsAsync(device *models.Device, callType int) {
	taskID := uuid.New().String()[:8]
	go func() {
		result, err := s.SyncCalls(device, callType)
		if err != nil {
			s.Logger.Error("[sync:%s] 后台通话同步失败 device=%d: %v", taskID, device.ID, err)
			return
		}
		s.Logger.Info("[sync:%s] 后台通话同步完成 device=%d 新增=%d", taskID, device.ID, result.NewCount)
	}()
}

// SyncContactsAsync 后台联系人同步
func (s *SyncService) SyncContactsAsync(device *models.Device) {
	taskID := uuid.New().String()[:8]
	go func() {
		result, err := s.SyncContacts(device)
		if err != nil {
			s.Logger.Error("[sync:%s] 后台联系人同步失败 device=%d: %v", taskID, device.ID, err)
			return
		}
		s.Logger.Info("[sync:%s] 后台联系人同步完成 device=%d 新增=%d 更新=%d",
			taskID, device.ID, result.NewCount, result.UpdatedCount)
	}()
}

// syncMessagePass 单一类型短信的增量拉取循环
func (s *SyncService) syncMessagePass(device *models.Device, msgType int) (models.SyncResult, error) {
	result := models.SyncResult{}

	for page := 1; page <= syncMaxPages; page++ {
		items, err := s.Client.QueryMessages(device, msgType, page, syncPageSize)
		if err != nil {
			return result, err
		}
		if len(items) == 0 {
			// 远端流读尽
			result.Complete = true
			return result, nil
		}

		var newRecords []models.MessageRecord
		for _, item := range items {
			exists, err := s.Repo.MessageExists(device.ID, item.Number, item.Date, item.Type)
			if err != nil {
				return result, err
			}
			if exists {
				// 含软删除行：用户删除过的短信不复活
				continue
			}

			s.ensureContact(device, item.Number, item.Name)
			newRecords = append(newRecords, models.MessageRecord{
				DeviceID:    device.ID,
				PhoneNumber: item.Number,
				Name:        item.Name,
				Content:     item.Content,
				Type:        item.Type,
				SimSlot:     item.SimSlot,
				DeviceTime:  item.Date,
			})
		}

		if len(newRecords) == 0 {
			// 整页都是已知记录，视为已追平。代理返回的顺序不保证严格单调，
			// 只有当前页贡献了新记录才值得继续翻页。
			result.Complete = true
			return result, nil
		}

		if err := s.Repo.InsertMessages(newRecords); err != nil {
			// 本页丢弃，这些记录未被标记为已存在，下次同步会重新发现
			s.Logger.Error("批量插入短信失败 device=%d page=%d: %v", device.ID, page, err)
			continue
		}
		result.NewCount += len(newRecords)
	}

	// 触达页数上限，不能声称读尽
	return result, nil
}

// syncCallPass 单一类型通话记录的增量拉取循环，与短信共用同一算法
func (s *SyncService) syncCallPass(device *models.Device, callType int) (models.SyncResult, error) {
	result := models.SyncResult{}

	for page := 1; page <= syncMaxPages; page++ {
		items, err := s.Client.QueryCalls(device, callType, page, syncPageSize)
		if err != nil {
			return result, err
		}
		if len(items) == 0 {
			result.Complete = true
			return result, nil
		}

		var newRecords []models.CallRecord
		for _, item := range items {
			exists, err := s.Repo.CallExists(device.ID, item.Number, item.Date, item.Type)
			if err != nil {
				return result, err
			}
			if exists {
				continue
			}

			s.ensureContact(device, item.Number, item.Name)
			newRecords = append(newRecords, models.CallRecord{
				DeviceID:    device.ID,
				PhoneNumber: item.Number,
				Name:        item.Name,
				Type:        item.Type,
				Duration:    item.Duration,
				SimSlot:     item.SimSlot,
				DeviceTime:  item.Date,
			})
		}

		if len(newRecords) == 0 {
			result.Complete = true
			return result, nil
		}

		if err := s.Repo.InsertCalls(newRecords); err != nil {
			s.Logger.Error("批量插入通话记录失败 device=%d page=%d: %v", device.ID, page, err)
			continue
		}
		result.NewCount += len(newRecords)
	}

	return result, nil
}

// seedContacts 设备尚无任何联系人时先做一次全量联系人同步，
// 让短信/通话落库前就能关联到真实姓名。失败只记日志，不阻塞本次同步。
func (s *SyncService) seedContacts(device *models.Device) {
	has, err := s.Repo.HasContacts(device.ID)
	if err != nil {
		s.Logger.Warning("检查联系人失败 device=%d: %v", device.ID, err)
		return
	}
	if has {
		return
	}

	if _, err := s.SyncContacts(device); err != nil {
		s.Logger.Warning("首次联系人同步失败 device=%d: %v", device.ID, err)
	}
}

// ensureContact 确保 (设备, 号码) 有一条联系人记录。
// 已存在（无论占位与否）则原样返回；否则创建占位记录。
func (s *SyncService) ensureContact(device *models.Device, phoneNumber, observedName string) {
	if phoneNumber == "" {
		return
	}

	existing, err := s.Repo.FindContactByNumber(device.ID, phoneNumber)
	if err != nil {
		s.Logger.Warning("查找联系人失败 device=%d number=%s: %v", device.ID, phoneNumber, err)
		return
	}
	if existing != nil {
		return
	}

	record := &models.ContactRecord{
		DeviceID:    device.ID,
		PhoneNumber: phoneNumber,
		Name:        contactDisplayName(phoneNumber, observedName),
		IsShadow:    true,
	}
	if err := s.Repo.CreateContact(record); err != nil {
		// 并发同步同一设备时撞唯一索引属于正常情况
		s.Logger.Warning("创建占位联系人失败 device=%d number=%s: %v", device.ID, phoneNumber, err)
	}
}

// notify 同步有增量时向MQTT推送结果
func (s *SyncService) notify(deviceID uint, kind string, result models.SyncResult) {
	if s.Notifier == nil {
		return
	}
	if result.NewCount == 0 && result.UpdatedCount == 0 {
		return
	}
	s.Notifier.PublishSyncResult(deviceID, kind, result)
}

// contactDisplayName 观测到的名称为空或为代理的"未知"占位串时回退为号码
func contactDisplayName(phoneNumber, observedName string) string {
	if unknownNamePlaceholders[observedName] {
		return phoneNumber
	}
	return observedName
}
