package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"o-trabalhador-server/utils"
)

// RegisterLocationRoutes registers the address helper routes
func RegisterLocationRoutes(router *gin.RouterGroup) {
	router.GET("/estados/:uf/municipios", listMunicipalities)
}

// listMunicipalities proxies the IBGE municipality catalogue for the address
// forms, so clients never talk to the IBGE API directly.
func listMunicipalities(c *gin.Context) {
	uf := strings.ToUpper(strings.TrimSpace(c.Param("uf")))
	if !utils.IsValidUF(uf) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state code"})
		return
	}

	municipalities, err := utils.FetchMunicipalities(c.Request.Context(), uf)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Location service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "municipios": municipalities})
}
