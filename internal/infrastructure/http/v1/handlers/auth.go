package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/auth"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	svc *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Login authenticates a user and issues a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, user, err := h.svc.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewLoginResponse(pair, user))
}

// Refresh rotates a refresh token into a new pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, pair)
}

// Logout revokes all refresh tokens of the current user.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := id.Parse(appctx.GetUserID(c.Request.Context()))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "logged out")
}

// ChangePassword changes the current user's password.
// POST /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID, err := id.Parse(appctx.GetUserID(c.Request.Context()))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password changed")
}

// Me returns the current user.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := id.Parse(appctx.GetUserID(c.Request.Context()))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	user, err := h.svc.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, user)
}

// Register creates a user. Admin only.
// POST /api/v1/users
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user.ID)
}

// ListUsers lists users. Admin only.
// GET /api/v1/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := auth.UserFilter{
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.StoreID != "" {
		storeID, err := id.Parse(req.StoreID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId").WithDetail("value", req.StoreID))
			return
		}
		filter.StoreID = storeID
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	users, total, err := h.svc.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      users,
		TotalCount: int64(total),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// SetActive enables or disables a user. Admin only.
// PUT /api/v1/users/:id/active
func (h *AuthHandler) SetActive(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), userID, req.IsActive); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "user updated")
}
