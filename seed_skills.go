package main

import (
	"log"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
)

// seedSkills populates the skill catalogue on first boot. Existing entries
// are kept untouched so manual additions survive restarts.
func seedSkills() error {
	db := database.GetDB()

	skills := []string{
		"eletricista",
		"encanador",
		"pintor",
		"pedreiro",
		"marceneiro",
		"serralheiro",
		"gesseiro",
		"azulejista",
		"jardineiro",
		"diarista",
		"cozinheiro",
		"montador_de_moveis",
		"tecnico_de_ar_condicionado",
		"tecnico_de_informatica",
		"chaveiro",
		"vidraceiro",
		"dedetizador",
		"piscineiro",
		"cuidador_de_idosos",
		"baba",
		"motorista",
		"freteiro",
	}

	var seeded int
	for _, name := range skills {
		var existing models.Skill
		if err := db.Where("nome = ?", name).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&models.Skill{Name: name}).Error; err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		log.Printf("✅ %d habilidades adicionadas ao catalogo", seeded)
	}
	return nil
}
