package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
	ws "o-trabalhador-server/websocket"
)

// setupOrderTestDB points the global handle at a sqlmock-backed gorm
// connection for the duration of one test.
func setupOrderTestDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	prevDB, prevHub := database.DB, workRoomHub
	database.DB = gdb
	workRoomHub = ws.NewHub()
	t.Cleanup(func() {
		database.DB = prevDB
		workRoomHub = prevHub
		db.Close()
	})
	return mock
}

// transitionContext builds an authenticated request against order :id.
func transitionContext(t *testing.T, userID uint, orderID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", userID)
	c.Params = gin.Params{{Key: "id", Value: orderID}}
	return c, w
}

// Order 10, contractor 1. workerID is nil for public offers.
func orderRows(workerID interface{}, status models.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "contratante_id", "trabalhador_id", "status", "habilidade", "avaliado_pelo_contratante",
	}).AddRow(int64(10), int64(1), workerID, string(status), "eletricista", false)
}

func professionalRows(available bool, skills string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "titulo", "habilidades", "disponivel"}).
		AddRow(int64(5), int64(2), "Eletricista residencial", skills, available)
}

const (
	selectOrderForUpdate = `SELECT .* FROM "ordens_de_servico" .*FOR UPDATE`
	selectProfessional   = `SELECT .* FROM "perfis_profissionais"`
	updateOrderSQL          = `UPDATE "ordens_de_servico" SET`
	updateProfessional   = `UPDATE "perfis_profissionais" SET`
)

// Accepting a targeted proposal flips the status and stamps aceita_em; the
// worker id is already on the row and no professional profile is consulted
// (ordered expectations fail on any extra query).
func TestAcceptTargetedProposal(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(int64(2), models.StatusPending))
	mock.ExpectExec(updateOrderSQL).
		WithArgs(sqlmock.AnyArg(), string(models.StatusAccepted), sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := transitionContext(t, 2, "10", "")
	acceptOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Claiming a public offer assigns the caller as the worker.
func TestClaimPublicOfferAssignsCaller(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(nil, models.StatusPublicOffer))
	mock.ExpectQuery(selectProfessional).WillReturnRows(professionalRows(true, "{eletricista}"))
	mock.ExpectExec(updateOrderSQL).
		WithArgs(sqlmock.AnyArg(), string(models.StatusAccepted), int64(2), sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := transitionContext(t, 2, "10", "")
	acceptOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An unavailable professional cannot claim from the pool.
func TestClaimPublicOfferUnavailableWorker(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(nil, models.StatusPublicOffer))
	mock.ExpectQuery(selectProfessional).WillReturnRows(professionalRows(false, "{eletricista}"))
	mock.ExpectRollback()

	c, w := transitionContext(t, 2, "10", "")
	acceptOrder(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A professional without the order's skill cannot claim it either.
func TestClaimPublicOfferSkillMismatch(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(nil, models.StatusPublicOffer))
	mock.ExpectQuery(selectProfessional).WillReturnRows(professionalRows(true, "{pintor}"))
	mock.ExpectRollback()

	c, w := transitionContext(t, 2, "10", "")
	acceptOrder(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Cancelling stores the justification verbatim alongside the terminal status.
func TestCancelStoresJustification(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(int64(2), models.StatusAccepted))
	mock.ExpectExec(updateOrderSQL).
		WithArgs(sqlmock.AnyArg(), "o material nao chegou na data combinada", string(models.StatusCancelled), sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := transitionContext(t, 1, "10", `{"motivo":"o material nao chegou na data combinada"}`)
	cancelOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A whitespace-only justification never reaches the database.
func TestCancelRejectsBlankJustification(t *testing.T) {
	mock := setupOrderTestDB(t)

	c, w := transitionContext(t, 1, "10", `{"motivo":"   "}`)
	cancelOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Rating writes the seven criterion columns and refreshes the worker's
// denormalized aggregate in the same transaction.
func TestRateOrderPersistsCriteriaAndAggregate(t *testing.T) {
	mock := setupOrderTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(orderRows(int64(2), models.StatusCompleted))
	mock.ExpectExec(updateOrderSQL).
		WithArgs(
			true,           // avaliado_pelo_contratante
			"bom trabalho", // comentario_avaliacao
			int64(4),       // nota_atencao_cliente
			int64(4),       // nota_atencao_detalhes
			int64(4),       // nota_comunicacao
			int64(4),       // nota_organizacao
			int64(5),       // nota_pontualidade
			int64(3),       // nota_proatividade
			int64(4),       // nota_velocidade_execucao
			sqlmock.AnyArg(),
			int64(10),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(AVG`).
		WithArgs(int64(2), true).
		WillReturnRows(sqlmock.NewRows([]string{"media", "total"}).AddRow(4.0, int64(1)))
	mock.ExpectExec(updateProfessional).
		WithArgs(4.0, int64(1), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"notas":{"pontualidade":5,"comunicacao":4,"atencao_cliente":4,"atencao_detalhes":4,` +
		`"organizacao":4,"velocidade_execucao":4,"proatividade":3},"comentario":"bom trabalho"}`
	c, w := transitionContext(t, 1, "10", body)
	rateOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Rating an already rated order is rejected before any write.
func TestRateOrderTwiceRejected(t *testing.T) {
	mock := setupOrderTestDB(t)

	rated := sqlmock.NewRows([]string{
		"id", "contratante_id", "trabalhador_id", "status", "habilidade", "avaliado_pelo_contratante",
	}).AddRow(int64(10), int64(1), int64(2), string(models.StatusCompleted), "eletricista", true)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOrderForUpdate).WillReturnRows(rated)
	mock.ExpectRollback()

	body := `{"notas":{"pontualidade":5,"comunicacao":4,"atencao_cliente":4,"atencao_detalhes":4,` +
		`"organizacao":4,"velocidade_execucao":4,"proatividade":3}}`
	c, w := transitionContext(t, 1, "10", body)
	rateOrder(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
