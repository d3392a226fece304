package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/services"
)

// ProfileHandler serves public profiles, follows and user search.
type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Show returns a public profile by username or id.
func (h *ProfileHandler) Show(c *gin.Context) {
	profile, err := h.profileService.Profile(currentUser(c), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateBio replaces the authenticated user's bio.
func (h *ProfileHandler) UpdateBio(c *gin.Context) {
	var req struct {
		Bio string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.profileService.UpdateBio(currentUser(c), req.Bio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Follow follows another user.
func (h *ProfileHandler) Follow(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.profileService.Follow(currentUser(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "followed"})
}

// Unfollow removes an existing follow.
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.profileService.Unfollow(currentUser(c).ID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

// Followers lists who follows the given user.
func (h *ProfileHandler) Followers(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.profileService.Followers(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": users})
}

// Following lists who the given user follows.
func (h *ProfileHandler) Following(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.profileService.Following(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": users})
}

// Search finds users by name or username.
func (h *ProfileHandler) Search(c *gin.Context) {
	users, err := h.profileService.Search(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
