package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
	"o-trabalhador-server/utils"
)

// RegisterSearchRoutes registers the worker search routes
func RegisterSearchRoutes(router *gin.RouterGroup) {
	router.GET("/trabalhadores", searchWorkers)
	router.GET("/habilidades", listSkills)
}

// searchWorkers returns available professionals matching a skill and an
// optional location, ranked by average rating then review count.
func searchWorkers(c *gin.Context) {
	skill := strings.TrimSpace(c.Query("habilidade"))
	if skill == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'habilidade' is required"})
		return
	}

	city := strings.TrimSpace(c.Query("cidade"))
	uf := strings.ToUpper(strings.TrimSpace(c.Query("uf")))
	if uf != "" && !utils.IsValidUF(uf) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state code"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	query := database.DB.Model(&models.ProfessionalProfile{}).
		Joins("JOIN perfis ON perfis.id = perfis_profissionais.user_id").
		Where("perfis_profissionais.disponivel = ?", true).
		Where("perfis.is_active = ?", true).
		Where("? = ANY(perfis_profissionais.habilidades)", skill)

	if city != "" {
		query = query.Where("perfis.cidade ILIKE ?", city)
	}
	if uf != "" {
		query = query.Where("perfis.estado = ?", uf)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	var profiles []models.ProfessionalProfile
	if err := query.
		Order("perfis_profissionais.media_avaliacoes DESC, perfis_profissionais.total_avaliacoes DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&profiles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	// Attach the public profile of each professional
	results := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		var user models.User
		if err := database.DB.First(&user, p.UserID).Error; err != nil {
			continue
		}
		user.Professional = &models.ProfessionalProfile{
			ID: p.ID, UserID: p.UserID, Title: p.Title, Bio: p.Bio,
			Skills: p.Skills, Available: p.Available,
			AvgRating: p.AvgRating, TotalRatings: p.TotalRatings,
		}
		results = append(results, gin.H{"perfil": user.Public()})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"trabalhadores": results,
		"total":        total,
		"page":         page,
	})
}

// listSkills returns the seeded skill catalogue for pickers
func listSkills(c *gin.Context) {
	var skills []models.Skill
	if err := database.DB.Order("nome ASC").Find(&skills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch skills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "habilidades": skills})
}
