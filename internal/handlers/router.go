package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/catalog"
	"github.com/lateeflat25-prog/9jabukabackend/internal/middleware"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
	"github.com/lateeflat25-prog/9jabukabackend/internal/storage"
)

// Deps is everything the HTTP API needs.
type Deps struct {
	Catalog   catalog.Store
	Orders    orders.Store
	Images    storage.ImageStore
	Checkout  SessionCreator
	Confirmer OrderConfirmer
	Status    StatusChanger
	Admins    AdminAuthenticator
	Ping      Pinger
	JWTSecret string
	// UploadDir is served under PublicPath when that is a local path.
	UploadDir  string
	PublicPath string
	Logger     logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(d.Logger), middleware.Logger(d.Logger))
	if d.UploadDir != "" && strings.HasPrefix(d.PublicPath, "/") {
		r.Static(d.PublicPath, d.UploadDir)
	}

	r.GET("/healthz", Health(d.Ping, d.Logger))

	adminAuth := middleware.AdminAuth(d.JWTSecret)

	api := r.Group("/api")
	api.POST("/admin/login", AdminLogin(d.Admins, d.Logger))

	foods := api.Group("/foods")
	{
		foods.GET("", ListMenuItems(d.Catalog, d.Logger))
		foods.GET("/:id", GetMenuItem(d.Catalog, d.Logger))
		foods.POST("/upload", adminAuth, CreateMenuItem(d.Catalog, d.Images, d.Logger))
		foods.PUT("/:id", adminAuth, UpdateMenuItem(d.Catalog, d.Images, d.Logger))
		foods.DELETE("/:id", adminAuth, DeleteMenuItem(d.Catalog, d.Images, d.Logger))
	}

	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("/create-checkout-session", CreateCheckoutSession(d.Checkout, d.Logger))
		ordersGroup.POST("/place", PlaceOrder(d.Confirmer, d.Logger))
		ordersGroup.POST("/webhook", StripeWebhook(d.Confirmer, d.Logger))
		ordersGroup.GET("/track/:referenceNumber", TrackOrder(d.Orders, d.Logger))
		ordersGroup.GET("", adminAuth, ListOrders(d.Orders, d.Logger))
		ordersGroup.PATCH("/:id", adminAuth, UpdateOrderStatus(d.Status, d.Logger))
	}

	return r
}
