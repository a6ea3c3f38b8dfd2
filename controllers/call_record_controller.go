package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/services/container"
)

// InterfaceCallRecordController 定义通话记录控制器接口
type InterfaceCallRecordController interface {
	GetCallRecords()
	MarkRead()
	SoftDeleteCallRecord()
	DeleteCallRecord()
}

// CallRecordController 处理通话记录相关的请求
type CallRecordController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCallRecordController 创建一个新的通话记录控制器
func NewCallRecordController(ctx *gin.Context, container *container.ServiceContainer) *CallRecordController {
	return &CallRecordController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCallRecordFunc 返回一个处理通话记录请求的Gin处理函数
func HandleCallRecordFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCallRecordController(ctx, container)

		switch method {
		case "getCallRecords":
			controller.GetCallRecords()
		case "markRead":
			controller.MarkRead()
		case "softDeleteCallRecord":
			controller.SoftDeleteCallRecord()
		case "deleteCallRecord":
			controller.DeleteCallRecord()
		default:
			ctx.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "方法不存在",
				"data":    nil,
			})
		}
	}
}

// GetCallRecords 获取通话记录列表
// @Summary      Get Call Records
// @Description  List synced call records. type: 0=all, 1=incoming, 2=outgoing, 3=missed.
// @Tags         Call
// @Produce      json
// @Param        device_id query int false "Device ID, 0 means all devices"
// @Param        type query int false "Call type filter"
// @Param        keyword query string false "Search in number and name"
// @Param        page query int false "Page number, default is 1"
// @Param        page_size query int false "Items per page, default is 10"
// @Success      200  {object}  map[string]interface{}
// @Router       /call [get]
func (c *CallRecordController) GetCallRecords() {
	page, pageSize := parsePagination(c.Ctx)
	deviceID, _ := strconv.ParseUint(c.Ctx.DefaultQuery("device_id", "0"), 10, 32)
	callType, _ := strconv.Atoi(c.Ctx.DefaultQuery("type", "0"))
	keyword := c.Ctx.Query("keyword")

	records, total, err := c.Container.GetCallRecordService().GetCallRecords(uint(deviceID), callType, keyword, page, pageSize)
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取通话记录失败: " + err.Error(),
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

// MarkRead 标记通话记录为已读
// @Summary      Mark Call Record Read
// @Tags         Call
// @Produce      json
// @Param        id path int true "Call record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /call/{id}/read [put]
func (c *CallRecordController) MarkRead() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetCallRecordService().MarkRead(id); err != nil {
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

// SoftDeleteCallRecord 软删除通话记录, 后续同步不会重新拉取
// @Summary      Soft Delete Call Record
// @Tags         Call
// @Produce      json
// @Param        id path int true "Call record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /call/{id} [delete]
func (c *CallRecordController) SoftDeleteCallRecord() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetCallRecordService().SoftDeleteCallRecord(id); err != nil {
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

// DeleteCallRecord 彻底删除通话记录
// @Summary      Purge Call Record
// @Tags         Call
// @Produce      json
// @Param        id path int true "Call record ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /call/{id}/purge [delete]
func (c *CallRecordController) DeleteCallRecord() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetCallRecordService().DeleteCallRecord(id); err != nil {
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
