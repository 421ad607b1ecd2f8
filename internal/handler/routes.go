package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/spiritschool/booking-api/internal/middleware"
	"github.com/spiritschool/booking-api/internal/service"
)

// Dependencies bundles everything route registration needs.
type Dependencies struct {
	Auth         *AuthHandler
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Teachers     *TeacherHandler
	Venues       *VenueHandler
	ClassLevels  *ClassLevelHandler
	Messages     *MessageHandler
	Exports      *ExportHandler
	Generation   *GenerationHandler

	AuthService *service.AuthService
}

// RegisterRoutes wires the API surface onto the engine under the prefix.
func RegisterRoutes(r *gin.Engine, prefix string, deps Dependencies) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", deps.Auth.Signup)
		auth.POST("/login", deps.Auth.Login)
	}

	api.GET("/availability", deps.Availability.OpenWindows)
	api.GET("/teachers", deps.Teachers.List)
	api.GET("/teachers/:id", deps.Teachers.Get)
	api.GET("/teachers/:id/slots", deps.Availability.TeacherSlots)
	api.GET("/venues", deps.Venues.List)
	api.GET("/venues/:id", deps.Venues.Get)
	api.GET("/class-levels", deps.ClassLevels.List)
	api.POST("/contact", deps.Messages.Submit)
	api.GET("/exports/download", deps.Exports.Download)

	// Guests may claim with full contact details; logged-in students get
	// their contact snapshot filled from the token.
	api.POST("/bookings", middleware.OptionalJWT(deps.AuthService), deps.Bookings.Claim)

	authed := api.Group("", middleware.JWT(deps.AuthService))
	{
		authed.GET("/bookings/mine", deps.Bookings.ListMine)
		authed.GET("/bookings/:id", deps.Bookings.Get)
		authed.POST("/bookings/:id/cancel", deps.Bookings.Cancel)
	}

	admin := api.Group("/admin", middleware.JWT(deps.AuthService), middleware.RequireAdmin())
	{
		admin.POST("/teachers", deps.Teachers.Create)
		admin.PUT("/teachers/:id", deps.Teachers.Update)
		admin.PUT("/teachers/:id/active", deps.Teachers.SetActive)
		admin.DELETE("/teachers/:id", deps.Teachers.Delete)
		admin.POST("/teachers/:id/slots", deps.Teachers.CreateSlots)
		admin.POST("/teachers/:id/slots/bulk", deps.Teachers.BulkCreateSlots)
		admin.DELETE("/teachers/:id/slots/:slotId", deps.Teachers.DeleteSlot)
		admin.POST("/teachers/:id/generate", deps.Teachers.GenerateSlots)

		admin.POST("/venues", deps.Venues.Create)
		admin.PUT("/venues/:id", deps.Venues.Update)
		admin.DELETE("/venues/:id", deps.Venues.Delete)

		admin.GET("/bookings", deps.Bookings.List)
		admin.PUT("/bookings/:id/class-level", deps.Bookings.AssignClassLevel)

		admin.GET("/messages", deps.Messages.List)
		admin.POST("/messages/:id/reply", deps.Messages.Reply)

		admin.POST("/exports/bookings", deps.Exports.ExportDay)

		if deps.Generation != nil {
			admin.POST("/generation/run", deps.Generation.RunAll)
		}
	}
}
