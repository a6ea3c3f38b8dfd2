package services

import (
	"sync"
	"time"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"gorm.io/gorm"
)

// InterfaceDeviceStore 状态轮询使用的设备读写原语
type InterfaceDeviceStore interface {
	ListDevices() ([]models.Device, error)
	UpdateDeviceColumns(id uint, updates map[string]interface{}) error
}

// DeviceStore 基于GORM的实现
type DeviceStore struct {
	DB *gorm.DB
}

// NewDeviceStore 创建一个新的设备存储
func NewDeviceStore(db *gorm.DB) InterfaceDeviceStore {
	return &DeviceStore{DB: db}
}

// ListDevices 列出全部设备
func (s *DeviceStore) ListDevices() ([]models.Device, error) {
	var devices []models.Device
	if err := s.DB.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// UpdateDeviceColumns 按列集合更新设备。
// 轮询只写自己拥有的状态/电量列，绝不整行覆盖，避免冲掉用户录入的备注等字段。
func (s *DeviceStore) UpdateDeviceColumns(id uint, updates map[string]interface{}) error {
	return s.DB.Model(&models.Device{}).Where("id = ?", id).Updates(updates).Error
}

// StatusNotifier 设备状态变化的通知出口，可为空
type StatusNotifier interface {
	PublishDeviceStatus(deviceID uint, status string)
}

// StatusPoller 定时巡检全部设备：查配置判断在线，按需查电量，
// 只回写变化的列。设备不可达是常态，任何错误都不对外传播。
type StatusPoller struct {
	Store    InterfaceDeviceStore
	Client   InterfaceDeviceClient
	Config   *config.Config
	Logger   Logger
	Notifier StatusNotifier // 可为nil

	stop chan struct{}
	done chan struct{}
}

// NewStatusPoller 创建一个新的状态轮询器
func NewStatusPoller(store InterfaceDeviceStore, client InterfaceDeviceClient, cfg *config.Config, logger Logger, notifier StatusNotifier) *StatusPoller {
	if logger == nil {
		logger = appLogger{}
	}
	return &StatusPoller{
		Store:    store,
		Client:   client,
		Config:   cfg,
		Logger:   logger,
		Notifier: notifier,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动后台轮询，启动时立即扫一遍，之后按固定间隔执行
func (p *StatusPoller) Start() {
	go p.run()
}

// Stop 停止轮询并等待当前一轮结束，用于优雅退出
func (p *StatusPoller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *StatusPoller) run() {
	defer close(p.done)

	interval := time.Duration(p.Config.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	p.Sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Sweep()
		case <-p.stop:
			return
		}
	}
}

// Sweep 对全部已知设备并发执行一轮状态刷新
func (p *StatusPoller) Sweep() {
	devices, err := p.Store.ListDevices()
	if err != nil {
		p.Logger.Error("状态轮询读取设备列表失败: %v", err)
		return
	}

	var wg sync.WaitGroup
	for i := range devices {
		wg.Add(1)
		go func(device models.Device) {
			defer wg.Done()
			p.pollDevice(&device)
		}(devices[i])
	}
	wg.Wait()
}

// pollDevice 单设备的一轮巡检
func (p *StatusPoller) pollDevice(device *models.Device) {
	agentCfg, err := p.Client.QueryConfig(device)
	if err != nil {
		// 只在状态变化时写库，避免每轮对离线设备做无意义更新
		if device.Status != models.DeviceStatusOffline {
			updates := map[string]interface{}{"status": models.DeviceStatusOffline}
			if err := p.Store.UpdateDeviceColumns(device.ID, updates); err != nil {
				p.Logger.Error("标记设备离线失败 device=%d: %v", device.ID, err)
				return
			}
			if p.Notifier != nil {
				p.Notifier.PublishDeviceStatus(device.ID, string(models.DeviceStatusOffline))
			}
		}
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.DeviceStatusOnline,
		"last_seen_at": &now,
		"device_mark":  agentCfg.ExtraDeviceMark,
		"sim1":         agentCfg.ExtraSim1,
		"sim2":         agentCfg.ExtraSim2,
	}

	// 设备侧未开启电量查询时不要去打扰它
	if agentCfg.EnableApiBatteryQuery {
		battery, err := p.Client.QueryBattery(device)
		if err != nil {
			p.Logger.Warning("查询设备电量失败 device=%d: %v", device.ID, err)
		} else {
			updates["battery_level"] = battery.Level
			updates["battery_status"] = battery.Status
			updates["battery_plugged"] = battery.Plugged
		}
	}

	if err := p.Store.UpdateDeviceColumns(device.ID, updates); err != nil {
		p.Logger.Error("写回设备状态失败 device=%d: %v", device.ID, err)
		return
	}

	if device.Status != models.DeviceStatusOnline && p.Notifier != nil {
		p.Notifier.PublishDeviceStatus(device.ID, string(models.DeviceStatusOnline))
	}
}
