package models

import "fmt"

// Rating criteria keys, as stored in the order's criterion map.
const (
	CriterionPunctuality   = "pontualidade"
	CriterionCommunication = "comunicacao"
	CriterionAttention     = "atencao_cliente"
	CriterionDetail        = "atencao_detalhes"
	CriterionOrganization  = "organizacao"
	CriterionSpeed         = "velocidade_execucao"
	CriterionProactivity   = "proatividade"
)

// RatingCriteria is the fixed list of criteria a contractor scores when
// rating a completed order. Every criterion must receive a 1-5 score.
var RatingCriteria = []string{
	CriterionPunctuality,
	CriterionCommunication,
	CriterionAttention,
	CriterionDetail,
	CriterionOrganization,
	CriterionSpeed,
	CriterionProactivity,
}

// RatingPayload is the criterion map submitted by the contractor, plus an
// optional free-text comment.
type RatingPayload struct {
	Scores  map[string]int `json:"notas" binding:"required"`
	Comment string         `json:"comentario"`
}

// Validate checks that every criterion is present with a score in 1..5 and
// that no unknown criterion was submitted.
func (r *RatingPayload) Validate() error {
	if len(r.Scores) != len(RatingCriteria) {
		return fmt.Errorf("avaliacao exige %d criterios, recebeu %d", len(RatingCriteria), len(r.Scores))
	}
	for _, criterion := range RatingCriteria {
		score, ok := r.Scores[criterion]
		if !ok {
			return fmt.Errorf("criterio %q ausente", criterion)
		}
		if score < 1 || score > 5 {
			return fmt.Errorf("criterio %q fora do intervalo 1-5: %d", criterion, score)
		}
	}
	return nil
}

// Average returns the mean of the seven criterion scores.
func (r *RatingPayload) Average() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range r.Scores {
		sum += s
	}
	return float64(sum) / float64(len(r.Scores))
}

// ApplyRating writes the criterion scores and comment onto the order.
// Callers must Validate the payload first; the order keeps one column per
// criterion so Postgres check constraints stay enforceable.
func (o *ServiceOrder) ApplyRating(r *RatingPayload) {
	o.RatingPunctuality = r.Scores[CriterionPunctuality]
	o.RatingCommunication = r.Scores[CriterionCommunication]
	o.RatingAttention = r.Scores[CriterionAttention]
	o.RatingDetail = r.Scores[CriterionDetail]
	o.RatingOrganization = r.Scores[CriterionOrganization]
	o.RatingSpeed = r.Scores[CriterionSpeed]
	o.RatingProactivity = r.Scores[CriterionProactivity]
	o.RatingComment = r.Comment
	o.RatedByContractor = true
}

// ColumnUpdates returns the rating as a column update map, so the rate
// transition touches only the rating columns of the order row.
func (r *RatingPayload) ColumnUpdates() map[string]interface{} {
	return map[string]interface{}{
		"nota_pontualidade":         r.Scores[CriterionPunctuality],
		"nota_comunicacao":          r.Scores[CriterionCommunication],
		"nota_atencao_cliente":      r.Scores[CriterionAttention],
		"nota_atencao_detalhes":     r.Scores[CriterionDetail],
		"nota_organizacao":          r.Scores[CriterionOrganization],
		"nota_velocidade_execucao":  r.Scores[CriterionSpeed],
		"nota_proatividade":         r.Scores[CriterionProactivity],
		"comentario_avaliacao":      r.Comment,
		"avaliado_pelo_contratante": true,
	}
}

// RatingMap rebuilds the criterion map from the order's columns. Returns nil
// while the order is unrated.
func (o *ServiceOrder) RatingMap() map[string]int {
	if !o.RatedByContractor {
		return nil
	}
	return map[string]int{
		CriterionPunctuality:   o.RatingPunctuality,
		CriterionCommunication: o.RatingCommunication,
		CriterionAttention:     o.RatingAttention,
		CriterionDetail:        o.RatingDetail,
		CriterionOrganization:  o.RatingOrganization,
		CriterionSpeed:         o.RatingSpeed,
		CriterionProactivity:   o.RatingProactivity,
	}
}
