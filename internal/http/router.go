// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vdrop/internal/http/handlers"
	"vdrop/internal/http/middleware"
	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/modules/identity"
)

type RouterDeps struct {
	Verifier  infra.TokenVerifier
	Resolver  middleware.ActorResolver
	Pickups   handlers.PickupService
	Rates     handlers.RateCard
	Events    handlers.EventLog
	Users     handlers.DirectoryService
	Addresses handlers.AddressService
	Accounts  handlers.AccountService
	Contact   handlers.ContactService
	Log       logger.ILogger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	pickupHandler := handlers.NewPickupHandler(deps.Pickups, deps.Rates)
	adminHandler := handlers.NewAdminHandler(deps.Pickups, deps.Events)
	userHandler := handlers.NewUserHandler(deps.Users)
	meHandler := handlers.NewMeHandler(deps.Users, deps.Addresses)
	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	contactHandler := handlers.NewContactHandler(deps.Contact)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	public := r.Group("/api")
	public.GET("/pricing", pickupHandler.Rates)
	public.GET("/cities", meHandler.Cities)
	public.POST("/contact", contactHandler.Submit)
	public.POST("/auth/signup", accountHandler.SignUp)
	public.POST("/auth/password-reset", accountHandler.PasswordReset)
	public.GET("/auth/email-exists", accountHandler.EmailExists)

	api := r.Group("/api", middleware.Auth(deps.Verifier), middleware.Identity(deps.Resolver))
	api.GET("/me", meHandler.Me)
	api.GET("/me/profile", meHandler.GetProfile)
	api.PUT("/me/profile", meHandler.UpdateProfile)
	api.GET("/me/stats", pickupHandler.MyStats)
	api.POST("/auth/password", accountHandler.UpdatePassword)
	api.POST("/auth/signout", accountHandler.SignOut)

	api.POST("/pickups", pickupHandler.Create)
	api.GET("/pickups", pickupHandler.ListMine)
	api.GET("/pickups/:id", pickupHandler.Get)
	api.POST("/pickups/:id/cancel", pickupHandler.Cancel)
	api.POST("/pickups/:id/label", pickupHandler.AttachLabel)

	admin := api.Group("/admin", middleware.Require(identity.CapViewAdmin))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/pickups", adminHandler.ListPickups)
	admin.GET("/pickups/:id/events", adminHandler.History)

	staff := admin.Group("", middleware.Require(identity.CapMutatePickups))
	staff.PATCH("/pickups/:id/status", adminHandler.Transition)
	staff.POST("/pickups/:id/photo", adminHandler.UploadPhoto)
	staff.PUT("/pickups/:id/tracking", adminHandler.SetTracking)

	users := admin.Group("/users", middleware.Require(identity.CapManageUsers))
	users.GET("", userHandler.List)
	users.POST("/invite", userHandler.Invite)
	users.PATCH("/:id", userHandler.Edit)
	users.DELETE("/:id", userHandler.Delete)

	return r
}
