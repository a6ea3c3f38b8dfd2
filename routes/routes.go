package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/controllers"
	"github.com/solywsh/smserver-sub000/middleware"
	"github.com/solywsh/smserver-sub000/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 全局限流
	r.Use(middleware.IPRateLimiter(20, 40))

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	api.GET("/ping", controllers.Ping)

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateAdmin())

	// 管理员路由
	auth.Group("/admin").GET("", controllers.HandleAdminFunc(container, "getAdmins"))
	auth.Group("/admin").GET("/:id", controllers.HandleAdminFunc(container, "getAdmin"))
	auth.Group("/admin").POST("", controllers.HandleAdminFunc(container, "createAdmin"))
	auth.Group("/admin").PUT("/:id", controllers.HandleAdminFunc(container, "updateAdmin"))
	auth.Group("/admin").DELETE("/:id", controllers.HandleAdminFunc(container, "deleteAdmin"))

	// 设备路由
	auth.Group("/device").GET("", controllers.HandleDeviceFunc(container, "getDevices"))
	auth.Group("/device").GET("/:id", controllers.HandleDeviceFunc(container, "getDevice"))
	auth.Group("/device").POST("", controllers.HandleDeviceFunc(container, "createDevice"))
	auth.Group("/device").PUT("/:id", controllers.HandleDeviceFunc(container, "updateDevice"))
	auth.Group("/device").DELETE("/:id", controllers.HandleDeviceFunc(container, "deleteDevice"))
	// 设备远程操作
	auth.Group("/device").GET("/:id/battery", controllers.HandleDeviceFunc(container, "getBattery"))
	auth.Group("/device").GET("/:id/location", controllers.HandleDeviceFunc(container, "getLocation"))
	auth.Group("/device").POST("/:id/wol", controllers.HandleDeviceFunc(container, "sendWol"))
	auth.Group("/device").GET("/:id/clone", controllers.HandleDeviceFunc(container, "pullClone"))
	auth.Group("/device").POST("/:id/clone", controllers.HandleDeviceFunc(container, "pushClone"))
	// 同步触发路由
	auth.Group("/device").POST("/:id/sync", controllers.HandleDeviceFunc(container, "syncAll"))
	auth.Group("/device").POST("/:id/sync/messages", controllers.HandleDeviceFunc(container, "syncMessages"))
	auth.Group("/device").POST("/:id/sync/calls", controllers.HandleDeviceFunc(container, "syncCalls"))
	auth.Group("/device").POST("/:id/sync/contacts", controllers.HandleDeviceFunc(container, "syncContacts"))

	// 短信路由
	auth.Group("/message").GET("", middleware.Cache(30*time.Second), controllers.HandleMessageFunc(container, "getMessages"))
	auth.Group("/message").POST("/send", controllers.HandleMessageFunc(container, "sendMessage"))
	auth.Group("/message").PUT("/:id/read", controllers.HandleMessageFunc(container, "markRead"))
	auth.Group("/message").DELETE("/:id", controllers.HandleMessageFunc(container, "softDeleteMessage"))
	auth.Group("/message").DELETE("/:id/purge", controllers.HandleMessageFunc(container, "deleteMessage"))

	// 通话记录路由
	auth.Group("/call").GET("", middleware.Cache(30*time.Second), controllers.HandleCallRecordFunc(container, "getCallRecords"))
	auth.Group("/call").PUT("/:id/read", controllers.HandleCallRecordFunc(container, "markRead"))
	auth.Group("/call").DELETE("/:id", controllers.HandleCallRecordFunc(container, "softDeleteCallRecord"))
	auth.Group("/call").DELETE("/:id/purge", controllers.HandleCallRecordFunc(container, "deleteCallRecord"))

	// 联系人路由
	auth.Group("/contact").GET("", middleware.Cache(30*time.Second), controllers.HandleContactFunc(container, "getContacts"))
	auth.Group("/contact").POST("", controllers.HandleContactFunc(container, "addContact"))
}
