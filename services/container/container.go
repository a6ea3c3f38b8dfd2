package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/services"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService

	// 设备通信与同步
	deviceClient  services.InterfaceDeviceClient
	syncService   services.InterfaceSyncService
	notifyService services.InterfaceNotifyService
	statusPoller  *services.StatusPoller

	// 业务服务
	deviceService     services.InterfaceDeviceService
	messageService    services.InterfaceMessageService
	callRecordService services.InterfaceCallRecordService
	contactService    services.InterfaceContactService
	adminService      services.InterfaceAdminService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	c.redisService = services.NewRedisService(c.config)

	// 初始化设备通信
	c.deviceClient = services.NewDeviceClient(c.config)

	// 初始化MQTT推送并连接，失败不阻塞启动
	c.notifyService = services.NewNotifyService(c.config, nil)
	if c.config.MQTTEnabled {
		if err := c.notifyService.Connect(); err != nil {
			log.Printf("MQTT推送服务连接失败: %v", err)
		}
	}

	// 初始化同步引擎
	syncRepo := services.NewSyncRepository(c.db)
	c.syncService = services.NewSyncService(syncRepo, c.deviceClient, c.config, nil, c.notifyService)

	// 初始化业务服务
	c.deviceService = services.NewDeviceService(c.db, c.config)
	c.messageService = services.NewMessageService(c.db, c.config, c.deviceClient)
	c.callRecordService = services.NewCallRecordService(c.db, c.config)
	c.contactService = services.NewContactService(c.db, c.config, c.deviceClient, syncRepo)
	c.adminService = services.NewAdminService(c.db, c.config)

	// 启动设备状态轮询
	deviceStore := services.NewDeviceStore(c.db)
	c.statusPoller = services.NewStatusPoller(deviceStore, c.deviceClient, c.config, nil, c.notifyService)
	c.statusPoller.Start()
}

// Shutdown 停止后台任务并断开外部连接，用于优雅退出
func (c *ServiceContainer) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.statusPoller != nil {
		c.statusPoller.Stop()
	}
	if c.notifyService != nil {
		c.notifyService.Disconnect()
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetJWTService 获取JWT服务
func (c *ServiceContainer) GetJWTService() services.InterfaceJWTService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jwtService
}

// GetRedisService 获取Redis缓存服务
func (c *ServiceContainer) GetRedisService() services.InterfaceRedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}

// GetDeviceClient 获取设备代理客户端
func (c *ServiceContainer) GetDeviceClient() services.InterfaceDeviceClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceClient
}

// GetSyncService 获取同步服务
func (c *ServiceContainer) GetSyncService() services.InterfaceSyncService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncService
}

// GetNotifyService 获取MQTT推送服务
func (c *ServiceContainer) GetNotifyService() services.InterfaceNotifyService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifyService
}

// GetDeviceService 获取设备服务
func (c *ServiceContainer) GetDeviceService() services.InterfaceDeviceService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceService
}

// GetMessageService 获取短信服务
func (c *ServiceContainer) GetMessageService() services.InterfaceMessageService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messageService
}

// GetCallRecordService 获取通话记录服务
func (c *ServiceContainer) GetCallRecordService() services.InterfaceCallRecordService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callRecordService
}

// GetContactService 获取联系人服务
func (c *ServiceContainer) GetContactService() services.InterfaceContactService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contactService
}

// GetAdminService 获取管理员服务
func (c *ServiceContainer) GetAdminService() services.InterfaceAdminService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adminService
}
