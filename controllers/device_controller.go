package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/services/container"
)

// InterfaceDeviceController 定义设备控制器接口
type InterfaceDeviceController interface {
	GetDevices()
	GetDevice()
	CreateDevice()
	UpdateDevice()
	DeleteDevice()
	GetBattery()
	GetLocation()
	SendWol()
	PullClone()
	PushClone()
	SyncMessages()
	SyncCalls()
	SyncContacts()
	SyncAll()
}

// DeviceController 处理设备相关的请求
type DeviceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceController 创建一个新的设备控制器
func NewDeviceController(ctx *gin.Context, container *container.ServiceContainer) *DeviceController {
	return &DeviceController{
		Ctx:       ctx,
		Container: container,
	}
}

// DeviceRequest 表示设备创建请求
type DeviceRequest struct {
	Name      string `json:"name" binding:"required" example:"客厅手机"`
	Remark    string `json:"remark" example:"backup phone"`
	AgentURL  string `json:"agent_url" binding:"required" example:"http://192.168.1.100:5000"`
	SecretKey string `json:"secret_key" binding:"required" example:"0123456789abcdef0123456789abcdef"`
}

// WolRequest 表示网络唤醒请求
type WolRequest struct {
	Mac string `json:"mac" binding:"required" example:"AA:BB:CC:DD:EE:FF"`
	IP  string `json:"ip" example:"192.168.1.255"`
}

// HandleDeviceFunc 返回一个处理设备请求的Gin处理函数
func HandleDeviceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceController(ctx, container)

		switch method {
		case "getDevices":
			controller.GetDevices()
		case "getDevice":
			controller.GetDevice()
		case "createDevice":
			controller.CreateDevice()
		case "updateDevice":
			controller.UpdateDevice()
		case "deleteDevice":
			controller.DeleteDevice()
		case "getBattery":
			controller.GetBattery()
		case "getLocation":
			controller.GetLocation()
		case "sendWol":
			controller.SendWol()
		case "pullClone":
			controller.PullClone()
		case "pushClone":
			controller.PushClone()
		case "syncMessages":
			controller.SyncMessages()
		case "syncCalls":
			controller.SyncCalls()
		case "syncContacts":
			controller.SyncContacts()
		case "syncAll":
			controller.SyncAll()
		default:
			ctx.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "方法不存在",
				"data":    nil,
			})
		}
	}
}

// loadDevice 根据路径参数加载设备, 失败时已写入响应
func (c *DeviceController) loadDevice() (*models.Device, bool) {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return nil, false
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(id)
	if err != nil {
		c.Ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return nil, false
	}
	return device, true
}

// GetDevices 获取设备列表
// @Summary      Get Devices
// @Description  Get a paged list of managed devices
// @Tags         Device
// @Produce      json
// @Param        page query int false "Page number, default is 1"
// @Param        page_size query int false "Items per page, default is 10"
// @Success      200  {object}  map[string]interface{}
// @Router       /device [get]
func (c *DeviceController) GetDevices() {
	page, pageSize := parsePagination(c.Ctx)

	devices, total, err := c.Container.GetDeviceService().GetAllDevices(page, pageSize)
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取设备列表失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data": gin.H{
			"pagination": models.NewPaginationResult(total, page, pageSize),
			"records":    devices,
		},
	})
}

// GetDevice 获取单个设备
// @Summary      Get Device By ID
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /device/{id} [get]
func (c *DeviceController) GetDevice() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// CreateDevice 创建设备
// @Summary      Create Device
// @Description  Register a phone agent. The secret key must be a 32-character hex string.
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        request body DeviceRequest true "Device data"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /device [post]
func (c *DeviceController) CreateDevice() {
	var req DeviceRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	device := models.Device{
		Name:      req.Name,
		Remark:    req.Remark,
		AgentURL:  req.AgentURL,
		SecretKey: req.SecretKey,
		Status:    models.DeviceStatusOffline,
	}

	if err := c.Container.GetDeviceService().CreateDevice(&device); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// UpdateDevice 更新设备
// @Summary      Update Device
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id} [put]
func (c *DeviceController) UpdateDevice() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	device, err := c.Container.GetDeviceService().UpdateDevice(id, updates)
	if err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// DeleteDevice 删除设备及其全部记录
// @Summary      Delete Device
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id} [delete]
func (c *DeviceController) DeleteDevice() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetDeviceService().DeleteDevice(id); err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    nil,
	})
}

// GetBattery 查询设备电量, 优先命中缓存
// @Summary      Get Device Battery
// @Description  Query the agent for battery status. Results are cached for one minute.
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  ErrorResponse
// @Router       /device/{id}/battery [get]
func (c *DeviceController) GetBattery() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	redisService := c.Container.GetRedisService()
	if cached, err := redisService.GetCachedBattery(device.ID); err == nil && cached != nil {
		c.Ctx.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "成功",
			"data":    cached,
		})
		return
	}

	info, err := c.Container.GetDeviceClient().QueryBattery(device)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "查询设备电量失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if err := redisService.CacheBattery(device.ID, info); err != nil {
		// 缓存失败不影响结果返回
		config.Warning("缓存设备 %d 电量失败: %v", device.ID, err)
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    info,
	})
}

// GetLocation 查询设备定位, 优先命中缓存
// @Summary      Get Device Location
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  ErrorResponse
// @Router       /device/{id}/location [get]
func (c *DeviceController) GetLocation() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	redisService := c.Container.GetRedisService()
	if cached, err := redisService.GetCachedLocation(device.ID); err == nil && cached != nil {
		c.Ctx.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "成功",
			"data":    cached,
		})
		return
	}

	info, err := c.Container.GetDeviceClient().QueryLocation(device)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "查询设备定位失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if err := redisService.CacheLocation(device.ID, info); err != nil {
		config.Warning("缓存设备 %d 定位失败: %v", device.ID, err)
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    info,
	})
}

// SendWol 通过设备发送网络唤醒包
// @Summary      Send Wake-on-LAN
// @Description  Ask the agent to broadcast a WOL magic packet on its local network
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        id path int true "Device ID"
// @Param        request body WolRequest true "WOL target"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/wol [post]
func (c *DeviceController) SendWol() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	var req WolRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if err := c.Container.GetDeviceClient().SendWol(device, req.Mac, req.IP); err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "发送WOL失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    nil,
	})
}

// PullClone 从设备导出配置克隆数据
// @Summary      Pull Clone Data
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/clone [get]
func (c *DeviceController) PullClone() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	data, err := c.Container.GetDeviceClient().PullClone(device)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "导出配置失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    data,
	})
}

// PushClone 向设备导入配置克隆数据
// @Summary      Push Clone Data
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/clone [post]
func (c *DeviceController) PushClone() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	var cloneData json.RawMessage
	if err := c.Ctx.ShouldBindJSON(&cloneData); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if err := c.Container.GetDeviceClient().PushClone(device, cloneData); err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "导入配置失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    nil,
	})
}

// syncTypeParam 解析同步类型参数, 默认为0(全部)
func (c *DeviceController) syncTypeParam() int {
	switch c.Ctx.DefaultQuery("type", "0") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	default:
		return 0
	}
}

// SyncMessages 触发短信同步
// @Summary      Sync Messages
// @Description  Pull message records from the agent into the local database. type: 0=all, 1=received, 2=sent. Pass async=true to run in the background.
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Param        type query int false "Message type filter"
// @Param        async query bool false "Fire and forget"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/sync/messages [post]
func (c *DeviceController) SyncMessages() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	msgType := c.syncTypeParam()
	syncService := c.Container.GetSyncService()

	if c.Ctx.Query("async") == "true" {
		syncService.SyncMessagesAsync(device, msgType)
		c.Ctx.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "同步任务已提交",
			"data":    nil,
		})
		return
	}

	result, err := syncService.SyncMessages(device, msgType)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "短信同步失败: " + err.Error(),
			"data":    result,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    result,
	})
}

// SyncCalls 触发通话记录同步
// @Summary      Sync Calls
// @Description  Pull call records from the agent. type: 0=all, 1=incoming, 2=outgoing, 3=missed.
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Param        type query int false "Call type filter"
// @Param        async query bool false "Fire and forget"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/sync/calls [post]
func (c *DeviceController) SyncCalls() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	callType := c.syncTypeParam()
	syncService := c.Container.GetSyncService()

	if c.Ctx.Query("async") == "true" {
		syncService.SyncCallsAsync(device, callType)
		c.Ctx.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "同步任务已提交",
			"data":    nil,
		})
		return
	}

	result, err := syncService.SyncCalls(device, callType)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "通话记录同步失败: " + err.Error(),
			"data":    result,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    result,
	})
}

// SyncContacts 触发联系人同步
// @Summary      Sync Contacts
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Param        async query bool false "Fire and forget"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/sync/contacts [post]
func (c *DeviceController) SyncContacts() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	syncService := c.Container.GetSyncService()

	if c.Ctx.Query("async") == "true" {
		syncService.SyncContactsAsync(device)
		c.Ctx.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "同步任务已提交",
			"data":    nil,
		})
		return
	}

	result, err := syncService.SyncContacts(device)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "联系人同步失败: " + err.Error(),
			"data":    result,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    result,
	})
}

// SyncAll 触发全量同步(短信+通话+联系人)
// @Summary      Sync All Records
// @Description  Run message, call and contact sync for a device and merge the results
// @Tags         Device
// @Produce      json
// @Param        id path int true "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /device/{id}/sync [post]
func (c *DeviceController) SyncAll() {
	device, ok := c.loadDevice()
	if !ok {
		return
	}

	syncService := c.Container.GetSyncService()

	total := models.SyncResult{Complete: true}
	var firstErr error

	if result, err := syncService.SyncMessages(device, models.MessageTypeAll); err != nil {
		firstErr = err
		total.Complete = false
	} else {
		total.Merge(result)
	}

	if result, err := syncService.SyncCalls(device, models.CallTypeAll); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		total.Complete = false
	} else {
		total.Merge(result)
	}

	if result, err := syncService.SyncContacts(device); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		total.Complete = false
	} else {
		total.Merge(result)
	}

	if firstErr != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "同步失败: " + firstErr.Error(),
			"data":    total,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    total,
	})
}
