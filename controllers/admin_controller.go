package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/services/container"
)

// InterfaceAdminController 定义管理员控制器接口
type InterfaceAdminController interface {
	GetAdmins()
	GetAdmin()
	CreateAdmin()
	UpdateAdmin()
	DeleteAdmin()
}

// AdminController 处理管理员相关的请求
type AdminController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAdminController 创建一个新的管理员控制器
func NewAdminController(ctx *gin.Context, container *container.ServiceContainer) *AdminController {
	return &AdminController{
		Ctx:       ctx,
		Container: container,
	}
}

// AdminRequest 表示管理员创建/更新请求
type AdminRequest struct {
	Username string `json:"username" binding:"required" example:"admin2"`
	Password string `json:"password" binding:"required" example:"secret123"`
	Email    string `json:"email" example:"admin@example.com"`
}

// HandleAdminFunc 返回一个处理管理员请求的Gin处理函数
func HandleAdminFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAdminController(ctx, container)

		switch method {
		case "getAdmins":
			controller.GetAdmins()
		case "getAdmin":
			controller.GetAdmin()
		case "createAdmin":
			controller.CreateAdmin()
		case "updateAdmin":
			controller.UpdateAdmin()
		case "deleteAdmin":
			controller.DeleteAdmin()
		default:
			ctx.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "方法不存在",
				"data":    nil,
			})
		}
	}
}

// GetAdmins 获取管理员列表
// @Summary      Get Admins
// @Description  Get a paged list of administrators
// @Tags         Admin
// @Produce      json
// @Param        page query int false "Page number, default is 1"
// @Param        page_size query int false "Items per page, default is 10"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin [get]
func (c *AdminController) GetAdmins() {
	page, pageSize := parsePagination(c.Ctx)

	admins, total, err := c.Container.GetAdminService().GetAllAdmins(page, pageSize)
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取管理员列表失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data": gin.H{
			"pagination": models.NewPaginationResult(total, page, pageSize),
			"records":    admins,
		},
	})
}

// GetAdmin 获取单个管理员
// @Summary      Get Admin By ID
// @Tags         Admin
// @Produce      json
// @Param        id path int true "Admin ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/{id} [get]
func (c *AdminController) GetAdmin() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	admin, err := c.Container.GetAdminService().GetAdminByID(id)
	if err != nil {
		c.Ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    admin,
	})
}

// CreateAdmin 创建管理员
// @Summary      Create Admin
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body AdminRequest true "Admin data"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /admin [post]
func (c *AdminController) CreateAdmin() {
	var req AdminRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	admin := models.Admin{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	}

	if err := c.Container.GetAdminService().CreateAdmin(&admin); err != nil {
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
		"data":    admin,
	})
}

// UpdateAdmin 更新管理员
// @Summary      Update Admin
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id path int true "Admin ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/{id} [put]
func (c *AdminController) UpdateAdmin() {
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

	admin, err := c.Container.GetAdminService().UpdateAdmin(id, updates)
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
		"data":    admin,
	})
}

// DeleteAdmin 删除管理员
// @Summary      Delete Admin
// @Tags         Admin
// @Produce      json
// @Param        id path int true "Admin ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/{id} [delete]
func (c *AdminController) DeleteAdmin() {
	id, ok := parseIDParam(c.Ctx)
	if !ok {
		return
	}

	if err := c.Container.GetAdminService().DeleteAdmin(id); err != nil {
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
		"data":    nil,
	})
}
