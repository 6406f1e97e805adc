package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullScores(value int) map[string]int {
	scores := make(map[string]int, len(RatingCriteria))
	for _, c := range RatingCriteria {
		scores[c] = value
	}
	return scores
}

func TestRatingPayloadValidate(t *testing.T) {
	payload := &RatingPayload{Scores: fullScores(4)}
	assert.NoError(t, payload.Validate())
}

func TestRatingPayloadValidateMissingCriterion(t *testing.T) {
	scores := fullScores(3)
	delete(scores, CriterionSpeed)

	payload := &RatingPayload{Scores: scores}
	assert.Error(t, payload.Validate())
}

func TestRatingPayloadValidateUnknownCriterion(t *testing.T) {
	scores := fullScores(3)
	delete(scores, CriterionSpeed)
	scores["simpatia"] = 5

	payload := &RatingPayload{Scores: scores}
	assert.Error(t, payload.Validate())
}

func TestRatingPayloadValidateOutOfRange(t *testing.T) {
	for _, bad := range []int{0, 6, -1} {
		scores := fullScores(3)
		scores[CriterionPunctuality] = bad

		payload := &RatingPayload{Scores: scores}
		assert.Error(t, payload.Validate(), "score %d must be rejected", bad)
	}
}

func TestRatingPayloadAverage(t *testing.T) {
	payload := &RatingPayload{Scores: fullScores(4)}
	assert.InDelta(t, 4.0, payload.Average(), 0.001)

	payload.Scores[CriterionSpeed] = 5
	payload.Scores[CriterionDetail] = 3
	// sum = 4*5 + 5 + 3 = 28, 28/7 = 4
	assert.InDelta(t, 4.0, payload.Average(), 0.001)

	empty := &RatingPayload{}
	assert.Zero(t, empty.Average())
}

func TestApplyRatingRoundTrip(t *testing.T) {
	scores := map[string]int{
		CriterionPunctuality:   5,
		CriterionCommunication: 4,
		CriterionAttention:     3,
		CriterionDetail:        4,
		CriterionOrganization:  5,
		CriterionSpeed:         2,
		CriterionProactivity:   1,
	}
	payload := &RatingPayload{Scores: scores, Comment: "caprichoso, mas atrasou no segundo dia"}
	require.NoError(t, payload.Validate())

	order := &ServiceOrder{Status: StatusCompleted}
	assert.Nil(t, order.RatingMap(), "unrated order must expose no rating")

	order.ApplyRating(payload)

	assert.True(t, order.RatedByContractor)
	assert.Equal(t, payload.Comment, order.RatingComment)
	assert.Equal(t, scores, order.RatingMap())
}

func TestColumnUpdates(t *testing.T) {
	payload := &RatingPayload{Scores: fullScores(4), Comment: "tudo certo"}
	payload.Scores[CriterionSpeed] = 5
	require.NoError(t, payload.Validate())

	updates := payload.ColumnUpdates()
	assert.Equal(t, map[string]interface{}{
		"nota_pontualidade":         4,
		"nota_comunicacao":          4,
		"nota_atencao_cliente":      4,
		"nota_atencao_detalhes":     4,
		"nota_organizacao":          4,
		"nota_velocidade_execucao":  5,
		"nota_proatividade":         4,
		"comentario_avaliacao":      "tudo certo",
		"avaliado_pelo_contratante": true,
	}, updates)
}
