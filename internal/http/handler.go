package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
	middleware "time-bank.com/time-bank/internal/http/middlewares"
	"time-bank.com/time-bank/internal/http/validators"
	"time-bank.com/time-bank/internal/notify"
	"time-bank.com/time-bank/internal/services"
)

// Inbox reads a user's recent notifications. Optional.
type Inbox interface {
	Inbox(ctx context.Context, userID string, limit int64) ([]notify.Event, error)
}

type Handler struct {
	taskService *services.TaskService
	userService *services.UserService
	inbox       Inbox
}

func NewHandler(taskService *services.TaskService, userService *services.UserService, inbox Inbox) *Handler {
	return &Handler{
		taskService: taskService,
		userService: userService,
		inbox:       inbox,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", apperr.ErrInvalidInput)
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), callerID(c), services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Availability: req.Availability,
		TimeOffered:  req.TimeOffered,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) ListOpenTasks(c echo.Context) error {
	var q dto.OpenTasksQuery
	if err := c.Bind(&q); err != nil {
		return fmt.Errorf("%w: invalid query parameters", apperr.ErrInvalidInput)
	}

	filter, err := validators.ParseOpenTasksQuery(&q)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListOpen(c.Request().Context(), callerID(c), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(tasks))
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) AcceptTask(c echo.Context) error {
	task, err := h.taskService.AcceptTask(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ReportTime(c echo.Context) error {
	var req dto.ReportTimeRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", apperr.ErrInvalidInput)
	}
	if err := validators.ValidateReportTimeRequest(&req); err != nil {
		return err
	}

	report, err := h.taskService.ReportTime(c.Request().Context(), callerID(c), c.Param("id"), req.Hours)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

func (h *Handler) ApproveTask(c echo.Context) error {
	completion, err := h.taskService.ApproveAndComplete(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, completion)
}

func (h *Handler) UnassignTask(c echo.Context) error {
	task, err := h.taskService.Unassign(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) CancelTask(c echo.Context) error {
	task, err := h.taskService.CancelTask(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), callerID(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddAttachment(c echo.Context) error {
	var req dto.AttachmentRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", apperr.ErrInvalidInput)
	}
	if err := validators.ValidateAttachmentRequest(&req); err != nil {
		return err
	}

	attachment, err := h.taskService.AddAttachment(c.Request().Context(), callerID(c), c.Param("id"), req.FileURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, attachment)
}

func (h *Handler) ListAttachments(c echo.Context) error {
	attachments, err := h.taskService.ListAttachments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(attachments))
}

func (h *Handler) TaskLedger(c echo.Context) error {
	entries, err := h.taskService.TaskLedger(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(entries))
}

func (h *Handler) Me(c echo.Context) error {
	profile, err := h.userService.Profile(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", apperr.ErrInvalidInput)
	}
	if err := validators.ValidateUpdateProfileRequest(&req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), callerID(c), services.UpdateProfileInput{
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		SkillSets:    req.SkillSets,
		Availability: req.Availability,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) MyBalance(c echo.Context) error {
	id := callerID(c)
	balance, err := h.userService.GetBalance(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.BalanceResponse{UserID: id, TimeBalance: balance})
}

func (h *Handler) MyRequests(c echo.Context) error {
	tasks, err := h.taskService.ListCreatedBy(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(tasks))
}

func (h *Handler) MyAssignments(c echo.Context) error {
	tasks, err := h.taskService.ListAssignedTo(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(tasks))
}

func (h *Handler) MyLedger(c echo.Context) error {
	entries, err := h.userService.Ledger(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(entries))
}

func (h *Handler) MyNotifications(c echo.Context) error {
	if h.inbox == nil {
		return c.JSON(http.StatusOK, dto.NewListResponse[notify.Event](nil))
	}

	events, err := h.inbox.Inbox(c.Request().Context(), callerID(c), 50)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewListResponse(events))
}

func (h *Handler) SetPushToken(c echo.Context) error {
	var req dto.PushTokenRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", apperr.ErrInvalidInput)
	}
	if err := validators.ValidatePushTokenRequest(&req); err != nil {
		return err
	}

	if err := h.userService.SetPushToken(c.Request().Context(), callerID(c), req.Token); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// GetUser shows the caller their full profile and everyone else the public
// view.
func (h *Handler) GetUser(c echo.Context) error {
	id := c.Param("id")
	if id == callerID(c) {
		return h.Me(c)
	}

	profile, err := h.userService.PublicProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func callerID(c echo.Context) string {
	if user := middleware.CallerFrom(c); user != nil {
		return user.ID
	}
	return ""
}
