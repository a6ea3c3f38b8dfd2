package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/services/container"
)

// InterfaceContactController 定义联系人控制器接口
type InterfaceContactController interface {
	GetContacts()
	AddContact()
}

// ContactController 处理联系人相关的请求
type ContactController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewContactController 创建一个新的联系人控制器
func NewContactController(ctx *gin.Context, container *container.ServiceContainer) *ContactController {
	return &ContactController{
		Ctx:       ctx,
		Container: container,
	}
}

// AddContactRequest 表示新增联系人请求
type AddContactRequest struct {
	DeviceID    uint   `json:"device_id" binding:"required" example:"1"`
	Name        string `json:"name" binding:"required" example:"张三"`
	PhoneNumber string `json:"phone_number" binding:"required" example:"+8613800138000"`
}

// HandleContactFunc 返回一个处理联系人请求的Gin处理函数
func HandleContactFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewContactController(ctx, container)

		switch method {
		case "getContacts":
			controller.GetContacts()
		case "addContact":
			controller.AddContact()
		default:
			ctx.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "方法不存在",
				"data":    nil,
			})
		}
	}
}

// GetContacts 获取联系人列表
// @Summary      Get Contacts
// @Description  List synced contacts, shadow entries included
// @Tags         Contact
// @Produce      json
// @Param        device_id query int false "Device ID, 0 means all devices"
// @Param        keyword query string false "Search in name and number"
// @Param        page query int false "Page number, default is 1"
// @Param        page_size query int false "Items per page, default is 10"
// @Success      200  {object}  map[string]interface{}
// @Router       /contact [get]
func (c *ContactController) GetContacts() {
	page, pageSize := parsePagination(c.Ctx)
	deviceID, _ := strconv.ParseUint(c.Ctx.DefaultQuery("device_id", "0"), 10, 32)
	keyword := c.Ctx.Query("keyword")

	records, total, err := c.Container.GetContactService().GetContacts(uint(deviceID), keyword, page, pageSize)
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取联系人列表失败: " + err.Error(),
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

// AddContact 新增联系人(先写入设备, 再落库)
// @Summary      Add Contact
// @Description  Push a new contact to the agent's address book, then upsert it locally
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        request body AddContactRequest true "Contact data"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  ErrorResponse
// @Router       /contact [post]
func (c *ContactController) AddContact() {
	var req AddContactRequest
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

	record, err := c.Container.GetContactService().AddContact(device, req.Name, req.PhoneNumber)
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "新增联系人失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    record,
	})
}
