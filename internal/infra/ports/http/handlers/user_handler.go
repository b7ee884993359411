package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/peerlink/internal/application/constant"
	"github.com/qrave1/peerlink/internal/infra/appctx"
	"github.com/qrave1/peerlink/internal/infra/ports/http/dto"
	"github.com/qrave1/peerlink/internal/usecase"
)

type UserHandler struct {
	userUsecase usecase.UserUsecase
}

func NewUserHandler(userUsecase usecase.UserUsecase) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
	}
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userUsecase.ListUsers(c.Request().Context())
	if err != nil {
		slog.Error("list users failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list users"})
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) SendRequest(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user ID in context"})
	}

	var req dto.SendRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	callReq, err := h.userUsecase.SendCallRequest(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "recipient not found"})
		}

		slog.Error("send call request failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not send request"})
	}

	return c.JSON(http.StatusCreated, dto.SendRequestResponse{ID: callReq.ID})
}

// ListRequests returns the pending call requests addressed to the caller.
func (h *UserHandler) ListRequests(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user ID in context"})
	}

	reqs, err := h.userUsecase.ListCallRequests(c.Request().Context(), userID)
	if err != nil {
		slog.Error("list call requests failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list requests"})
	}

	return c.JSON(http.StatusOK, reqs)
}
