package routes

import (
	"net/http"
	_ "net/http/pprof"

	"eventra/bookings"
	"eventra/dashboard"
	"eventra/events"
	"eventra/middleware"
	"eventra/notifications"
	"eventra/ratelim"
	"eventra/tenants"
	"eventra/users"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/eventpic/*filepath", http.Dir("static/eventpic"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(middleware.RequestTenant(middleware.OptionalAuth(users.Register))))
	router.POST("/api/auth/login", rl.Limit(users.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(users.Logout))
	router.POST("/api/auth/token/refresh", rl.Limit(users.RefreshToken))
}

func AddUserRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/users", middleware.RequestTenant(middleware.Authenticate(users.ListUsers)))
	router.GET("/api/users/me", middleware.Authenticate(users.GetMe))
}

func AddTenantRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/tenants", rl.Limit(middleware.RequestTenant(middleware.OptionalAuth(tenants.CreateTenant))))
	router.GET("/api/tenants", middleware.RequestTenant(middleware.Authenticate(tenants.ListTenants)))
	router.GET("/api/tenants/:tenantid", middleware.RequestTenant(middleware.Authenticate(tenants.GetTenant)))
	router.PUT("/api/tenants/:tenantid", rl.Limit(middleware.RequestTenant(middleware.Authenticate(tenants.UpdateTenant))))
	router.DELETE("/api/tenants/:tenantid", rl.Limit(middleware.RequestTenant(middleware.Authenticate(tenants.DeleteTenant))))
}

func AddEventRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/events", rl.Limit(middleware.RequestTenant(middleware.Authenticate(events.CreateEvent))))
	router.GET("/api/events", middleware.RequestTenant(middleware.OptionalAuth(events.GetEvents)))
	router.GET("/api/events/:eventid", middleware.RequestTenant(middleware.OptionalAuth(events.GetEvent)))
	router.PUT("/api/events/:eventid", rl.Limit(middleware.RequestTenant(middleware.Authenticate(events.EditEvent))))
	router.DELETE("/api/events/:eventid", rl.Limit(middleware.RequestTenant(middleware.Authenticate(events.DeleteEvent))))
	router.POST("/api/events/:eventid/banner", rl.Limit(middleware.RequestTenant(middleware.Authenticate(events.UploadBanner))))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/book-event", rl.Limit(middleware.RequestTenant(middleware.Authenticate(bookings.BookEvent))))
	router.POST("/api/cancel-booking", rl.Limit(middleware.RequestTenant(middleware.Authenticate(bookings.CancelBooking))))
	router.GET("/api/bookings", middleware.RequestTenant(middleware.Authenticate(bookings.ListBookings)))
	router.GET("/api/bookings/:bookingid/ticket", middleware.Authenticate(bookings.PrintConfirmation))
}

func AddNotificationRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/notifications", middleware.Authenticate(notifications.ListNotifications))
	router.POST("/api/notifications/:notificationid/read", rl.Limit(middleware.Authenticate(notifications.MarkRead)))
	router.GET("/ws/notifications", middleware.Authenticate(notifications.HandleWS))
}

func AddDashboardRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/dashboard", middleware.RequestTenant(middleware.Authenticate(dashboard.GetDashboard)))
}
