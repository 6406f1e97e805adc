package jobs

import (
	"log"
	"time"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
)

// ExpirationJob periodically lapses worker subscriptions past their expiry
// and prunes expired auth tokens.
type ExpirationJob struct {
	interval time.Duration
	stopChan chan bool
}

// NewExpirationJob creates a new expiration job
func NewExpirationJob() *ExpirationJob {
	return &ExpirationJob{
		interval: 10 * time.Minute,
		stopChan: make(chan bool),
	}
}

// Start begins the expiration job
func (j *ExpirationJob) Start() {
	go j.run()
	log.Println("🚀 Expiration job started")
}

// Stop stops the expiration job
func (j *ExpirationJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Expiration job stopped")
}

func (j *ExpirationJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.expireSubscriptions()
			j.cleanupTokens()
		case <-j.stopChan:
			return
		}
	}
}

// expireSubscriptions marks confirmed subscriptions past expiry as expired.
func (j *ExpirationJob) expireSubscriptions() {
	result := database.DB.Model(&models.WorkerSubscription{}).
		Where("status = ? AND expires_at <= ?", models.PaymentConfirmed, time.Now()).
		Update("status", models.PaymentExpired)

	if result.Error != nil {
		log.Printf("❌ Error expiring subscriptions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("⏰ %d worker subscriptions expired", result.RowsAffected)
	}
}

// cleanupTokens removes expired refresh and password reset tokens.
func (j *ExpirationJob) cleanupTokens() {
	if err := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error; err != nil {
		log.Printf("❌ Error cleaning refresh tokens: %v", err)
	}
	if err := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.PasswordResetToken{}).Error; err != nil {
		log.Printf("❌ Error cleaning reset tokens: %v", err)
	}
}
