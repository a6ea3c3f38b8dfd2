package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/utils"
)

// 设备代理的固定端点路径，与代理端实现一一对应
const (
	EndpointSmsQuery      = "/sms/query"
	EndpointSmsSend       = "/sms/send"
	EndpointCallQuery     = "/call/query"
	EndpointContactQuery  = "/contact/query"
	EndpointContactAdd    = "/contact/add"
	EndpointBatteryQuery  = "/battery/query"
	EndpointLocationQuery = "/location/query"
	EndpointConfigQuery   = "/config/query"
	EndpointWolSend       = "/wol/send"
	EndpointClonePull     = "/clone/pull"
	EndpointClonePush     = "/clone/push"
)

// requestEnvelope 请求信封。sign字段为代理协议保留字段，本系统始终传空串
type requestEnvelope struct {
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
	Sign      string      `json:"sign"`
}

// responseEnvelope 响应信封，code==200表示代理侧成功
type responseEnvelope struct {
	Code      int             `json:"code"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// RemoteError 设备代理返回的业务错误：HTTP与解密均成功，但代理报告失败
// （如设备侧未开启对应功能）。错误信息原样透出给管理端。
type RemoteError struct {
	Code int
	Msg  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("设备代理返回错误(code=%d): %s", e.Code, e.Msg)
}

// MessageItem 代理返回的单条短信
type MessageItem struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Type    int    `json:"type"` // 1接收 2发送
	SimSlot int    `json:"sim_id"`
	Date    int64  `json:"date"` // 毫秒时间戳
}

// CallItem 代理返回的单条通话记录
type CallItem struct {
	Number   string `json:"number"`
	Name     string `json:"name"`
	Type     int    `json:"type"` // 1呼入 2呼出 3未接
	Duration int    `json:"duration"`
	SimSlot  int    `json:"sim_id"`
	Date     int64  `json:"date"`
}

// ContactItem 代理返回的单个联系人
type ContactItem struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// BatteryInfo 电池信息，代理返回的均为描述性字符串
type BatteryInfo struct {
	Level   string `json:"level"`
	Status  string `json:"status"`
	Plugged string `json:"plugged"`
}

// LocationInfo 定位信息
type LocationInfo struct {
	Longitude string `json:"longitude"`
	Latitude  string `json:"latitude"`
	Address   string `json:"address"`
	Time      int64  `json:"time"`
}

// AgentConfig 设备侧配置及描述信息，状态轮询据此决定是否继续查询电量
type AgentConfig struct {
	EnableApiBatteryQuery bool   `json:"enable_api_battery_query"`
	ExtraDeviceMark       string `json:"extra_device_mark"`
	ExtraSim1             string `json:"extra_sim1"`
	ExtraSim2             string `json:"extra_sim2"`
}

// InterfaceDeviceClient 定义设备代理客户端接口
type InterfaceDeviceClient interface {
	Call(device *models.Device, path string, payload interface{}, out interface{}) error
	QueryMessages(device *models.Device, msgType, pageNum, pageSize int) ([]MessageItem, error)
	SendMessage(device *models.Device, simSlot int, numbers []string, content string) error
	QueryCalls(device *models.Device, callType, pageNum, pageSize int) ([]CallItem, error)
	QueryContacts(device *models.Device) ([]ContactItem, error)
	AddContact(device *models.Device, name, phoneNumber string) error
	QueryBattery(device *models.Device) (*BatteryInfo, error)
	QueryLocation(device *models.Device) (*LocationInfo, error)
	QueryConfig(device *models.Device) (*AgentConfig, error)
	SendWol(device *models.Device, mac, ip string) error
	PullClone(device *models.Device) (json.RawMessage, error)
	PushClone(device *models.Device, cloneData json.RawMessage) error
}

// DeviceClient 设备代理的加密HTTP客户端
type DeviceClient struct {
	Config     *config.Config
	HTTPClient *http.Client
}

// NewDeviceClient 创建一个新的设备代理客户端
func NewDeviceClient(cfg *config.Config) InterfaceDeviceClient {
	return &DeviceClient{
		Config: cfg,
		HTTPClient: &http.Client{
			// 手机移动网络可能很慢，超时需要足够宽裕
			Timeout: time.Duration(cfg.DeviceTimeoutSeconds) * time.Second,
		},
	}
}

// Call 将payload包入信封、加密后POST到设备，并把响应data解到out中。
// 传输层不做重试，由调用方在下次同步时自然重试。
func (c *DeviceClient) Call(device *models.Device, path string, payload interface{}, out interface{}) error {
	envelope := requestEnvelope{
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
		Sign:      "",
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	ciphertext, err := utils.EncryptPayload(device.SecretKey, body)
	if err != nil {
		return err
	}

	url := strings.TrimRight(device.AgentURL, "/") + path
	resp, err := c.HTTPClient.Post(url, "text/plain", strings.NewReader(ciphertext))
	if err != nil {
		return fmt.Errorf("设备请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取设备响应失败: %w", err)
	}

	// 优先尝试解密响应体：部分代理在业务失败时也返回非2xx，
	// 只要信封可解就按代理的code处理
	plaintext, decErr := utils.DecryptPayload(device.SecretKey, strings.TrimSpace(string(respBody)))
	if decErr != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("设备返回HTTP %d", resp.StatusCode)
		}
		return decErr
	}

	var respEnvelope responseEnvelope
	if err := json.Unmarshal(plaintext, &respEnvelope); err != nil {
		return fmt.Errorf("解析设备响应失败: %w", err)
	}

	if respEnvelope.Code != http.StatusOK {
		return &RemoteError{Code: respEnvelope.Code, Msg: respEnvelope.Msg}
	}

	if out != nil && len(respEnvelope.Data) > 0 {
		if err := json.Unmarshal(respEnvelope.Data, out); err != nil {
			return fmt.Errorf("解析设备数据失败: %w", err)
		}
	}

	return nil
}

// QueryMessages 分页查询短信，msgType: 1接收 2发送
func (c *DeviceClient) QueryMessages(device *models.Device, msgType, pageNum, pageSize int) ([]MessageItem, error) {
	payload := map[string]interface{}{
		"type":      msgType,
		"page_num":  pageNum,
		"page_size": pageSize,
		"keyword":   "",
	}

	var items []MessageItem
	if err := c.Call(device, EndpointSmsQuery, payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SendMessage 通过设备发送短信
func (c *DeviceClient) SendMessage(device *models.Device, simSlot int, numbers []string, content string) error {
	payload := map[string]interface{}{
		"sim_slot":      simSlot,
		"phone_numbers": numbers,
		"msg_content":   content,
	}
	return c.Call(device, EndpointSmsSend, payload, nil)
}

// QueryCalls 分页查询通话记录，callType: 1呼入 2呼出 3未接
func (c *DeviceClient) QueryCalls(device *models.Device, callType, pageNum, pageSize int) ([]CallItem, error) {
	payload := map[string]interface{}{
		"type":      callType,
		"page_num":  pageNum,
		"page_size": pageSize,
	}

	var items []CallItem
	if err := c.Call(device, EndpointCallQuery, payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// QueryContacts 查询全量联系人，代理端不分页
func (c *DeviceClient) QueryContacts(device *models.Device) ([]ContactItem, error) {
	var items []ContactItem
	if err := c.Call(device, EndpointContactQuery, map[string]interface{}{}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddContact 向设备添加联系人
func (c *DeviceClient) AddContact(device *models.Device, name, phoneNumber string) error {
	payload := map[string]interface{}{
		"name":         name,
		"phone_number": phoneNumber,
	}
	return c.Call(device, EndpointContactAdd, payload, nil)
}

// QueryBattery 查询电池信息
func (c *DeviceClient) QueryBattery(device *models.Device) (*BatteryInfo, error) {
	var info BatteryInfo
	if err := c.Call(device, EndpointBatteryQuery, map[string]interface{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// QueryLocation 查询设备定位
func (c *DeviceClient) QueryLocation(device *models.Device) (*LocationInfo, error) {
	var info LocationInfo
	if err := c.Call(device, EndpointLocationQuery, map[string]interface{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// QueryConfig 查询设备侧配置和描述信息
func (c *DeviceClient) QueryConfig(device *models.Device) (*AgentConfig, error) {
	var cfg AgentConfig
	if err := c.Call(device, EndpointConfigQuery, map[string]interface{}{}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SendWol 通过设备发送网络唤醒包
func (c *DeviceClient) SendWol(device *models.Device, mac, ip string) error {
	payload := map[string]interface{}{
		"mac": mac,
		"ip":  ip,
	}
	return c.Call(device, EndpointWolSend, payload, nil)
}

// PullClone 拉取设备侧配置快照（一键换新机）
func (c *DeviceClient) PullClone(device *models.Device) (json.RawMessage, error) {
	var data json.RawMessage
	if err := c.Call(device, EndpointClonePull, map[string]interface{}{}, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// PushClone 向设备推送配置快照
func (c *DeviceClient) PushClone(device *models.Device, cloneData json.RawMessage) error {
	return c.Call(device, EndpointClonePush, cloneData, nil)
}
