package handlers

import (
	"fmt"
	"path/filepath"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/s3"
	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	Users      services.UserService
	S3Uploader *s3.Uploader
}

type RegisterRequest struct {
	Email    string                  `json:"email" binding:"required"`
	Password string                  `json:"password" binding:"required"`
	Name     string                  `json:"name" binding:"required"`
	Phone    string                  `json:"phone"`
	Role     string                  `json:"role" binding:"required"`
	Driver   *models.DriverDetails   `json:"driverDetails"`
	Employer *models.EmployerDetails `json:"employerDetails"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, token, err := h.Users.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
		Driver:   req.Driver,
		Employer: req.Employer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"user": user, "token": token})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, token, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"user": user, "token": token})
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.Users.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, user)
}

type UpdateProfileRequest struct {
	Name     *string                 `json:"name"`
	Phone    *string                 `json:"phone"`
	Driver   *models.DriverDetails   `json:"driverDetails"`
	Employer *models.EmployerDetails `json:"employerDetails"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Driver:   req.Driver,
		Employer: req.Employer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, user)
}

// GetUser serves the public profile of any user.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.Users.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, user.Public())
}

// UploadAvatar stores the avatar image on S3 and records its URL.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, "avatar file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := fmt.Sprintf("avatars/%s/%s%s", userID.Hex(), uuid.New().String(), filepath.Ext(fileHeader.Filename))

	url, err := h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Users.SetAvatar(c.Request.Context(), userID, url); err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"avatarURL": url})
}
