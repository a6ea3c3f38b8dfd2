package services

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
)

// 推送主题常量
const (
	// 同步结果主题
	TopicSyncResult = "smserver/sync"

	// 设备状态主题
	TopicDeviceStatus = "smserver/device/status"
)

// InterfaceNotifyService 定义MQTT推送服务接口
type InterfaceNotifyService interface {
	Connect() error
	Disconnect()
	PublishSyncResult(deviceID uint, kind string, result models.SyncResult)
	PublishDeviceStatus(deviceID uint, status string)
}

// NotifyService 将同步结果和设备状态变化推送到MQTT，
// 供前端面板订阅实时更新。未配置Broker时所有操作退化为空操作。
type NotifyService struct {
	Config *config.Config
	Client mqtt.Client
	Logger Logger
}

// NewNotifyService 创建一个新的推送服务
func NewNotifyService(cfg *config.Config, logger Logger) InterfaceNotifyService {
	if logger == nil {
		logger = appLogger{}
	}
	return &NotifyService{
		Config: cfg,
		Logger: logger,
	}
}

// Connect 连接MQTT服务器。未配置Broker时直接返回，不视为错误。
func (s *NotifyService) Connect() error {
	if s.Config.MQTTBroker == "" {
		s.Logger.Info("未配置MQTT Broker，跳过推送服务")
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBroker)
	// 客户端ID加随机后缀，避免多实例互踢
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", s.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	s.Client = client
	s.Logger.Info("MQTT推送服务已连接: %s", s.Config.MQTTBroker)
	return nil
}

// Disconnect 断开MQTT连接
func (s *NotifyService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// PublishSyncResult 推送一次同步的结果
func (s *NotifyService) PublishSyncResult(deviceID uint, kind string, result models.SyncResult) {
	s.publish(TopicSyncResult, map[string]interface{}{
		"device_id":     deviceID,
		"kind":          kind,
		"new_count":     result.NewCount,
		"updated_count": result.UpdatedCount,
		"is_complete":   result.Complete,
		"timestamp":     time.Now().UnixMilli(),
	})
}

// PublishDeviceStatus 推送设备在线状态变化
func (s *NotifyService) PublishDeviceStatus(deviceID uint, status string) {
	s.publish(TopicDeviceStatus, map[string]interface{}{
		"device_id": deviceID,
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *NotifyService) publish(topic string, payload map[string]interface{}) {
	if s.Client == nil || !s.Client.IsConnected() {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("序列化MQTT消息失败: %v", err)
		return
	}

	if token := s.Client.Publish(topic, 0, false, body); token.Wait() && token.Error() != nil {
		s.Logger.Warning("MQTT消息发布失败 topic=%s: %v", topic, token.Error())
	}
}
