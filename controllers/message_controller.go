package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/services/container"
)

// InterfaceMessageController 定义短信控制器接口
type InterfaceMessageController interface {
	GetMessages()
	SendMessage()
	MarkRead()
	SoftDeleteMessage()
	DeleteMessage()
}

// MessageController 处理短信记录相关的请求
type MessageController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMessageController 创建一个新的短信控制器
func NewMessageController(ctx *gin.Context, container *container.ServiceContainer) *MessageController {
	return &MessageController{
		Ctx:       ctx,
		Container: container,
	}
}

// SendMessageRequest 表示下发短信请求
type SendMessageRequest struct {
	DeviceID uint     `json:"device_id" binding:"required" example:"1"`
	SimSlot  int      `json:"sim_slot" example:"1"`
	Numbers  []string `json:"numbers" binding:"required"`
	Content  string   `json:"content" binding:"required" example:"hello"`
}

// HandleMessageFunc 返回一个处理短信请求的Gin处理函数
func HandleMessageFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMessageController(ctx, container)

		switch method {
		case "getMessages":
			controller.GetMessages()
		case "sendMessage":
			controller.SendMessage()
		case "markRead":
			controller.MarkRead()
		case "softDeleteMessage":
			controller.SoftDeleteMessage()
		case "deleteMessage":
			controller.DeleteMessage()
		default:
			ctx.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "方法不存在",
				"data":    nil,
			})
		}
	}
}

// GetMessages 获取短信列表
// @Summary      Get Messages
// @Description  List synced message records. Filter by device, type (0=all, 1=received, 2=sent) and keyword.
// @Tags         Message
// @Produce      json
// @Param        device_id query int false "Device ID, 0 means all devices"
// @Param        type query int false "Message type filter"
// @Param        keyword query string false "Search in number, name and content"
// @Param        page query int false "Page number, default is 1"
// @Param        page_size query int false "Items per page, default is 10"
// @Success      200  {object}  map[string]interface{}
// @Router       /message [get]
func (c *MessageController) GetMessages() {
	page, pageSize := parsePagination(c.Ctx)
	deviceID, _ := strconv.ParseUint(c.Ctx.DefaultQuery("device_id", "0"), 10, 32)
	msgType, _ := strconv.Atoi(c.Ctx.DefaultQuery("type", "0"))
	keyword := c.Ctx.Query("keyword")

	records, total, err := c.Container.GetMessageService().GetMessages(uint(deviceID), msgType, keyword, page, pageSize)
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取短信列表失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data": gin.H{
			"pagination": models.NewPaginationResult(total, page, pageSize),
			"records":    records,
		},
	})
}

// SendMessage 通过设备下发短信
// @Summary      Send Message
// @Description  Ask the agent to send an SMS to one or more numbers
// @Tags         Message
// @Accept       json
// @Produce      json
// @Param        request body SendMessageRequest true "Message to send"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  ErrorResponse
// @Router       /message/send [post]
func (c *MessageController) SendMessage() {
	var req SendMessageRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(req.DeviceID)
	if err != nil {
		c.Ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	if err := c.Container.GetMessageService().SendMessage(device, req.SimSlot, req.Numbers, req.Content); err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "短信发送失败: " + err.Error(),
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

// MarkRead 标记短信为已读
// @Summary      Mark Message Read
// @Tags         Message
// @Produce      json
// @Param        id path int true "Message record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /message/{id}/read [put]
func (c *MessageController) MarkRead() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetMessageService().MarkRead(id); err != nil {
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

// SoftDeleteMessage 软删除短信记录, 后续同步不会重新拉取
// @Summary      Soft Delete Message
// @Tags         Message
// @Produce      json
// @Param        id path int true "Message record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /message/{id} [delete]
func (c *MessageController) SoftDeleteMessage() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetMessageService().SoftDeleteMessage(id); err != nil {
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

// DeleteMessage 彻底删除短信记录
// @Summary      Purge Message
// @Description  Permanently remove a message record. It may be re-imported by a later sync.
// @Tags         Message
// @Produce      json
// @Param        id path int true "Message record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /message/{id}/purge [delete]
func (c *MessageController) DeleteMessage() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetMessageService().DeleteMessage(id); err != nil {
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
