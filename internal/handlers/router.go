package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/summer-camp-school/camp-service/internal/auth"
	"github.com/summer-camp-school/camp-service/internal/metrics"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// HandlerDeps is everything the HTTP layer is built from
type HandlerDeps struct {
	Services  services.ServiceManager
	Verifier  auth.Verifier
	Issuer    TokenIssuer
	Validator *validator.Validator
	Logger    utils.Logger
	// Gatherer serves /metrics when set
	Gatherer prometheus.Gatherer
	// RoleUpdateRequiresAdmin puts PATCH /users/:id behind token + admin
	RoleUpdateRequiresAdmin bool
}

type HandlerManager struct {
	userHandler  *UserHandler
	classHandler *ClassHandler
	cartHandler  *CartHandler
	orderHandler *OrderHandler
	access       *AccessControl

	services                services.ServiceManager
	gatherer                prometheus.Gatherer
	roleUpdateRequiresAdmin bool
}

func NewHandlerManager(deps HandlerDeps) *HandlerManager {
	sm := deps.Services
	return &HandlerManager{
		userHandler:             NewUserHandler(sm.User(), deps.Issuer, deps.Validator, deps.Logger),
		classHandler:            NewClassHandler(sm.Class(), sm.Instructor(), deps.Logger),
		cartHandler:             NewCartHandler(sm.Cart(), deps.Logger),
		orderHandler:            NewOrderHandler(sm.Order(), sm.Report(), deps.Logger),
		access:                  NewAccessControl(deps.Verifier, sm.User(), deps.Logger),
		services:                sm,
		gatherer:                deps.Gatherer,
		roleUpdateRequiresAdmin: deps.RoleUpdateRequiresAdmin,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	ac := hm.access
	token := ac.Authorize
	admin := ac.RequireRole(models.RoleAdmin)
	instructor := ac.RequireRole(models.RoleInstructor)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Summer Camp School server is running")
	})
	router.GET("/health", hm.health)
	if hm.gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(hm.gatherer)))
	}

	router.POST("/jwt", hm.userHandler.IssueToken)

	users := router.Group("/users")
	{
		users.GET("", token(admin), hm.userHandler.ListUsers)
		users.GET("/admin/:email", token(RequireSelf(EmailFromParam("email"))), hm.userHandler.CheckRole(models.RoleAdmin))
		users.GET("/instructor/:email", token(RequireSelf(EmailFromParam("email"))), hm.userHandler.CheckRole(models.RoleInstructor))
		users.GET("/student/:email", token(RequireSelf(EmailFromParam("email"))), hm.userHandler.CheckRole(models.RoleStudent))
		users.POST("", hm.userHandler.CreateUser)
		if hm.roleUpdateRequiresAdmin {
			users.PATCH("/:id", token(admin), hm.userHandler.UpdateRole)
		} else {
			users.PATCH("/:id", hm.userHandler.UpdateRole)
		}
	}

	classes := router.Group("/classes")
	{
		classes.GET("", hm.classHandler.ListClasses)
		classes.GET("/:id", token(instructor, RequireSelf(EmailFromQuery("email"))), hm.classHandler.GetClass)
		classes.POST("", token(instructor, RequireSelf(EmailFromBody("instructorEmail"))), hm.classHandler.CreateClass)
		classes.PATCH("/update/:id", token(instructor, RequireSelf(EmailFromBody("instructorEmail"))), hm.classHandler.UpdateClass)
		classes.PATCH("/status/:id", token(), hm.classHandler.UpdateStatus)
		classes.PATCH("/feedback/:id", token(), hm.classHandler.UpdateFeedback)
	}

	router.GET("/instructors", hm.classHandler.ListInstructors)

	carts := router.Group("/carts")
	{
		carts.GET("", token(RequireSelf(EmailFromQuery("email"))), hm.cartHandler.ListCart)
		carts.POST("", token(RequireSelf(EmailFromBody("email"))), hm.cartHandler.AddToCart)
		carts.DELETE("/:id", token(RequireSelf(EmailFromQuery("email"))), hm.cartHandler.RemoveFromCart)
	}

	router.POST("/order/:id", token(RequireSelf(EmailFromBody("email"))), hm.orderHandler.Initiate)
	router.GET("/orders", token(RequireSelf(EmailFromQuery("email"))), hm.orderHandler.ListOrders)
	router.GET("/orders/export", token(admin), hm.orderHandler.ExportOrders)

	// gateway callbacks carry no token
	payment := router.Group("/payment")
	{
		payment.POST("/success/:tranId", hm.orderHandler.PaymentSuccess)
		payment.POST("/failed/:tranId", hm.orderHandler.PaymentFailed)
		payment.POST("/ipn", hm.orderHandler.PaymentNotification)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.services.HealthCheck(c.Request.Context()); err != nil {
		utils.GetLogger(c, hm.userHandler.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "camp-service",
	})
}
