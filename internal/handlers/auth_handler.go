package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/services"
)

// authCookieMaxAge matches the JWT lifetime.
const authCookieMaxAge = 30 * 24 * 60 * 60

// AuthHandler serves registration, login and account management.
type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterOptions returns the class/major catalog for the signup form.
func (h *AuthHandler) RegisterOptions(c *gin.Context) {
	options, err := h.authService.RegisterOptions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// Register creates a student account. Accepts multipart form data so an
// avatar can be uploaded in the same request.
func (h *AuthHandler) Register(c *gin.Context) {
	req := &services.RegisterRequest{
		Username: c.PostForm("username"),
		Name:     c.PostForm("name"),
		Phone:    c.PostForm("phone"),
		Password: c.PostForm("password"),
		Class:    c.PostForm("class"),
		Major:    c.PostForm("major"),
	}
	if file, err := c.FormFile("avatar"); err == nil {
		req.Avatar = file
	}

	result, err := h.authService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookie(c, result.Token)
	c.JSON(http.StatusCreated, gin.H{
		"user":           result.User,
		"token":          result.Token,
		"enrolled_count": result.EnrolledCount,
	})
}

// Login authenticates by username and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookie(c, result.Token)
	c.JSON(http.StatusOK, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// Logout clears the auth cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// UpdateProfile applies a partial account update from multipart form data.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	req := &services.UpdateProfileRequest{}
	if v, ok := c.GetPostForm("username"); ok {
		req.Username = &v
	}
	if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}
	if v, ok := c.GetPostForm("phone"); ok {
		req.Phone = &v
	}
	if v, ok := c.GetPostForm("password"); ok {
		req.Password = &v
	}
	if file, err := c.FormFile("avatar"); err == nil {
		req.Avatar = file
	}

	user, err := h.authService.UpdateProfile(currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CompleteFirstLogin finalizes a pre-provisioned account.
func (h *AuthHandler) CompleteFirstLogin(c *gin.Context) {
	req := &services.FirstLoginRequest{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}
	if v, ok := c.GetPostForm("phone"); ok {
		req.Phone = &v
	}
	if file, err := c.FormFile("avatar"); err == nil {
		req.Avatar = file
	}

	user, err := h.authService.CompleteFirstLogin(currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie("auth_token", token, authCookieMaxAge, "/", "", false, true)
}
