package routes

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"o-trabalhador-server/database"
	"o-trabalhador-server/middleware"
	"o-trabalhador-server/models"
	"o-trabalhador-server/services"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService()

	// Sign up endpoint
	router.POST("/signup", func(c *gin.Context) {
		var req struct {
			FullName        string `json:"nome_completo" binding:"required,min=2,max=100"`
			Email           string `json:"email" binding:"required,email"`
			Password        string `json:"senha" binding:"required,min=8,max=128"`
			ConfirmPassword string `json:"confirmar_senha" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.FullName = middleware.SanitizeInput(req.FullName)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		isStrong, errors := middleware.ValidatePasswordStrength(req.Password)
		if !isStrong {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": errors,
			})
			return
		}

		if req.Password != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Password mismatch",
				"message": "Passwords do not match",
			})
			return
		}

		var existingUser models.User
		if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "User already exists",
				"message": "An account with this email already exists",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.Password)
		if err != nil {
			log.Printf("❌ Password hashing failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to process password",
			})
			return
		}

		user := models.User{
			FullName:     req.FullName,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ User creation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create account",
			})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(user.ID, c.GetHeader("X-Device-ID"), c.GetHeader("User-Agent"), c.ClientIP())
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Account created successfully",
			"data": gin.H{
				"user":   user,
				"tokens": tokenPair,
			},
		})
	})

	// Sign in endpoint
	router.POST("/signin", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"senha" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		if err := database.DB.Preload("Professional").Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Account deactivated",
				"message": "Your account has been deactivated",
			})
			return
		}

		if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(user.ID, c.GetHeader("X-Device-ID"), c.GetHeader("User-Agent"), c.ClientIP())
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"user":   user,
				"tokens": tokenPair,
			},
		})
	})

	// Refresh token endpoint
	router.POST("/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
			return
		}

		tokenPair, err := jwtService.RefreshAccessToken(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid refresh token",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"tokens": tokenPair}})
	})

	// Sign out endpoint: revokes the presented refresh token
	router.POST("/signout", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
			return
		}

		if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Sign out failed", "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signed out"})
	})

	// Password reset request. Always answers 200 so the endpoint cannot be
	// used to probe which emails exist.
	router.POST("/password-reset", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
			return
		}

		var user models.User
		if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err == nil {
			token, err := jwtService.GeneratePasswordResetToken(user.ID)
			if err != nil {
				log.Printf("❌ Reset token generation failed for user %d: %v", user.ID, err)
			} else {
				// Delivery is handled by the mail worker; here we only log
				log.Printf("📧 Password reset token issued for user %d: %s...", user.ID, token[:8])
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "If the email exists, reset instructions were sent",
		})
	})

	// Password reset confirmation
	router.POST("/password-reset/confirm", func(c *gin.Context) {
		var req struct {
			Token       string `json:"token" binding:"required"`
			NewPassword string `json:"nova_senha" binding:"required,min=8,max=128"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
			return
		}

		isStrong, errors := middleware.ValidatePasswordStrength(req.NewPassword)
		if !isStrong {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"details": errors,
			})
			return
		}

		var reset models.PasswordResetToken
		if err := database.DB.Where("token = ?", req.Token).First(&reset).Error; err != nil || !reset.IsUsable() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "Reset token is invalid or expired",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		now := time.Now()
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
				Update("password_hash", hashedPassword).Error; err != nil {
				return err
			}
			return tx.Model(&reset).Update("used_at", now).Error
		})
		if err != nil {
			log.Printf("❌ Password reset failed for user %d: %v", reset.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		// Force re-login everywhere
		jwtService.RevokeAllUserTokens(reset.UserID)

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
	})
}
