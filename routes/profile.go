package routes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"o-trabalhador-server/config"
	"o-trabalhador-server/database"
	"o-trabalhador-server/middleware"
	"o-trabalhador-server/models"
	"o-trabalhador-server/utils"
)

// RegisterProfileRoutes registers profile routes under the protected group
func RegisterProfileRoutes(router *gin.RouterGroup) {
	router.GET("/me", getMyProfile)
	router.PUT("/me", updateMyProfile)
	router.GET("/:id", getPublicProfile)
	router.PUT("/me/profissional", upsertProfessionalProfile)
	router.DELETE("/me/profissional", removeProfessionalProfile)
	router.POST("/me/foto", uploadProfilePhoto)
}

// getMyProfile returns the authenticated user's full profile
func getMyProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.Preload("Professional").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "perfil": user})
}

// updateMyProfile edits the personal fields of the authenticated profile
func updateMyProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	if req.State != "" && !utils.IsValidUF(req.State) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state code"})
		return
	}
	if req.PostalCode != "" && !utils.IsValidCEP(req.PostalCode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CEP"})
		return
	}
	if req.PhoneNumber != "" && !utils.IsValidPhone(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if req.FullName != "" {
		user.FullName = middleware.SanitizeInput(req.FullName)
	}
	if req.Nickname != "" {
		user.Nickname = middleware.SanitizeInput(req.Nickname)
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	}
	if req.Street != "" {
		user.Street = req.Street
	}
	if req.Number != "" {
		user.Number = req.Number
	}
	if req.District != "" {
		user.District = req.District
	}
	if req.City != "" {
		user.City = req.City
	}
	if req.State != "" {
		user.State = strings.ToUpper(req.State)
	}
	if req.PostalCode != "" {
		user.PostalCode = req.PostalCode
	}

	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "perfil": user})
}

// getPublicProfile returns the public view of any user's profile
func getPublicProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile id"})
		return
	}

	var user models.User
	if err := database.DB.Preload("Professional").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "perfil": user.Public()})
}

// upsertProfessionalProfile creates or updates the worker sub-profile
func upsertProfessionalProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.ProfessionalProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	skills := make([]string, 0, len(req.Skills))
	for _, s := range req.Skills {
		s = strings.TrimSpace(s)
		if s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one skill is required"})
		return
	}

	var profile models.ProfessionalProfile
	err := database.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load professional profile"})
		return
	}

	profile.UserID = userID
	profile.Title = middleware.SanitizeInput(req.Title)
	profile.Bio = middleware.SanitizeInput(req.Bio)
	profile.Skills = skills
	if req.Available != nil {
		profile.Available = *req.Available
	}

	if err := database.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save professional profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "perfil_profissional": profile})
}

// removeProfessionalProfile soft-deletes the worker sub-profile
func removeProfessionalProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	if err := database.DB.Where("user_id = ?", userID).Delete(&models.ProfessionalProfile{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove professional profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// validateImageFile validates extension and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// uploadProfilePhoto stores the new photo in Cloudinary, updates the profile
// URL and deletes the previous asset. Deletion is best effort: the URL swap
// is not transactional with object storage.
func uploadProfilePhoto(c *gin.Context) {
	userID := c.GetUint("user_id")

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid form data"})
		return
	}

	header, err := c.FormFile("foto")
	if err != nil || !validateImageFile(header) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Profile not found"})
		return
	}

	storage := config.AppConfig.Storage
	if storage.CloudName == "" || storage.APIKey == "" || storage.APISecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Object storage not configured"})
		return
	}

	cld, err := cloudinary.NewFromURL(fmt.Sprintf("cloudinary://%s:%s@%s", storage.APIKey, storage.APISecret, storage.CloudName))
	if err != nil {
		log.Printf("❌ Failed to initialize Cloudinary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Object storage initialization failed"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Could not read photo"})
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	overwrite := true
	unique := true
	publicID := fmt.Sprintf("perfil_%d_%d", userID, time.Now().Unix())
	up, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         "perfis/fotos",
		PublicID:       publicID,
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
		ResourceType:   "image",
	})
	if err != nil {
		log.Printf("❌ Photo upload failed for user %d: %v", userID, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Photo upload failed"})
		return
	}

	oldURL := user.ProfilePictureURL
	user.ProfilePictureURL = &up.SecureURL
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save profile"})
		return
	}

	if oldURL != nil {
		if oldID := publicIDFromURL(*oldURL); oldID != "" {
			if _, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: oldID}); err != nil {
				log.Printf("⚠️ Failed to delete old photo %s: %v", oldID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "foto_url": up.SecureURL})
}

// publicIDFromURL extracts the Cloudinary public id from a delivery URL.
func publicIDFromURL(url string) string {
	idx := strings.Index(url, "/perfis/fotos/")
	if idx < 0 {
		return ""
	}
	rest := url[idx+1:]
	return strings.TrimSuffix(rest, filepath.Ext(rest))
}
