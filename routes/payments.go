package routes

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"o-trabalhador-server/config"
	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
	"o-trabalhador-server/services"
	"o-trabalhador-server/utils"
)

// subscriptionPeriod is how long one confirmed subscription charge lasts
const subscriptionPeriod = 30 * 24 * time.Hour

// RegisterPaymentRoutes registers the protected payment routes
func RegisterPaymentRoutes(router *gin.RouterGroup) {
	pixService := services.NewPixService()

	router.POST("/pix", func(c *gin.Context) { createPixCharge(c, pixService) })
	router.GET("/assinatura", getSubscriptionStatus)
}

// RegisterPaymentWebhook registers the gateway callback. It lives outside the
// authenticated group: the gateway signs requests with a shared secret.
func RegisterPaymentWebhook(router *gin.RouterGroup) {
	router.POST("/webhooks/pix", handlePixWebhook)
}

// createPixCharge creates a gateway charge for the caller and records the
// pending payment row matched later by the webhook.
func createPixCharge(c *gin.Context, pixService *services.PixService) {
	userID := c.GetUint("user_id")

	var req models.PixChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if !utils.IsValidCPF(req.TaxID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CPF"})
		return
	}

	if req.PaymentType == models.PaymentTypeSubscription {
		var sub models.WorkerSubscription
		if err := database.DB.Where("user_id = ?", userID).First(&sub).Error; err == nil && sub.IsCurrent() {
			c.JSON(http.StatusConflict, gin.H{"error": "Subscription already active"})
			return
		}
		// The subscription price is fixed by the platform, not the client
		req.Amount = config.AppConfig.Pix.SubscriptionPrice
	}

	charge, err := pixService.CreateCharge(req, userID)
	if err != nil {
		log.Printf("❌ PIX charge creation failed for user %d: %v", userID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
		return
	}

	switch req.PaymentType {
	case models.PaymentTypeSubscription:
		// One row per worker; a new charge replaces the previous reference
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var sub models.WorkerSubscription
			if err := tx.Where("user_id = ?", userID).First(&sub).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				sub = models.WorkerSubscription{UserID: userID}
			}
			sub.ReferenceID = charge.ReferenceID
			sub.Status = models.PaymentPending
			return tx.Save(&sub).Error
		})
	case models.PaymentTypeService:
		payment := models.ContractorPayment{
			UserID:      userID,
			ReferenceID: charge.ReferenceID,
			Amount:      charge.Amount,
			Status:      models.PaymentPending,
		}
		err = database.DB.Create(&payment).Error
	}
	if err != nil {
		log.Printf("❌ Failed to record pending payment %s: %v", charge.ReferenceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "cobranca": charge})
}

// getSubscriptionStatus returns the caller's subscription state
func getSubscriptionStatus(c *gin.Context) {
	userID := c.GetUint("user_id")

	var sub models.WorkerSubscription
	if err := database.DB.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "ativa": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"ativa":      sub.IsCurrent(),
		"assinatura": sub,
	})
}

// pixWebhookPayload is what the gateway posts back on charge settlement
type pixWebhookPayload struct {
	ReferenceID string `json:"reference_id" binding:"required"`
	Status      string `json:"status" binding:"required"`
	PaidAt      string `json:"paid_at"`
}

// handlePixWebhook confirms the payment matching the reference id. The
// handler is idempotent: redelivered webhooks find the row already confirmed
// and answer 200 without touching it again.
func handlePixWebhook(c *gin.Context) {
	if secret := config.AppConfig.Pix.WebhookSecret; secret != "" {
		if c.GetHeader("X-Webhook-Secret") != secret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
			return
		}
	}

	var payload pixWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "message": err.Error()})
		return
	}

	if payload.Status != "paid" && payload.Status != "confirmed" {
		// Only settlement events mutate state
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	ref, err := models.ParsePaymentReference(payload.ReferenceID)
	if err != nil {
		log.Printf("⚠️ Webhook with malformed reference_id: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed reference_id"})
		return
	}

	now := time.Now()
	switch ref.Type {
	case models.PaymentTypeSubscription:
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var sub models.WorkerSubscription
			if err := tx.Where("reference_id = ?", payload.ReferenceID).First(&sub).Error; err != nil {
				return err
			}
			if sub.Status == models.PaymentConfirmed {
				return nil
			}
			expires := now.Add(subscriptionPeriod)
			sub.Status = models.PaymentConfirmed
			sub.PaidAt = &now
			sub.ExpiresAt = &expires
			return tx.Save(&sub).Error
		})
	case models.PaymentTypeService:
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var payment models.ContractorPayment
			if err := tx.Where("reference_id = ?", payload.ReferenceID).First(&payment).Error; err != nil {
				return err
			}
			if payment.Status == models.PaymentConfirmed {
				return nil
			}
			payment.Status = models.PaymentConfirmed
			payment.PaidAt = &now
			return tx.Save(&payment).Error
		})
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("⚠️ Webhook for unknown reference_id %s", payload.ReferenceID)
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown reference_id"})
		return
	}
	if err != nil {
		log.Printf("❌ Webhook processing failed for %s: %v", payload.ReferenceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	log.Printf("✅ Payment confirmed: %s (user %d)", payload.ReferenceID, ref.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
