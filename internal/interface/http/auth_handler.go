package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aduba/internal/domain/auth"
)

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, serviceError(err, "register_failed"))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// SignUp is the legacy registration endpoint used by the web dashboard.
func (h *Handler) SignUp(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, serviceError(err, "register_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user created", "user": view})
}

// Login issues tokens for valid credentials.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, serviceError(err, "login_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh trades a refresh token for a new token pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, serviceError(err, "refresh_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented access token.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		abortWithError(c, serviceError(err, "logout_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, serviceError(err, "profile_failed"))
		return
	}
	c.JSON(http.StatusOK, view)
}
