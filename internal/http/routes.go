package http

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "time-bank.com/time-bank/internal/http/middlewares"
)

// RateLimits are requests per minute.
type RateLimits struct {
	PerCaller int
	PerIP     int
}

func Register(e *echo.Echo, h *Handler, users middleware.UserLookup, limits RateLimits) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RateLimiter(limits.PerIP, time.Minute))

	e.GET("/healthz", h.Health)

	api := e.Group("",
		middleware.Caller(users),
		middleware.CallerRateLimiter(limits.PerCaller, time.Minute),
	)

	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks", h.ListOpenTasks)
	api.GET("/tasks/:id", h.GetTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/accept", h.AcceptTask)
	api.POST("/tasks/:id/report", h.ReportTime)
	api.POST("/tasks/:id/approve", h.ApproveTask)
	api.POST("/tasks/:id/unassign", h.UnassignTask)
	api.POST("/tasks/:id/cancel", h.CancelTask)
	api.GET("/tasks/:id/attachments", h.ListAttachments)
	api.POST("/tasks/:id/attachments", h.AddAttachment)
	api.GET("/tasks/:id/ledger", h.TaskLedger)

	api.GET("/me", h.Me)
	api.PUT("/me", h.UpdateProfile)
	api.GET("/me/balance", h.MyBalance)
	api.GET("/me/requests", h.MyRequests)
	api.GET("/me/assignments", h.MyAssignments)
	api.GET("/me/ledger", h.MyLedger)
	api.GET("/me/notifications", h.MyNotifications)
	api.PUT("/me/push-token", h.SetPushToken)

	api.GET("/users/:id", h.GetUser)
}
