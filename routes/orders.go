package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
	"o-trabalhador-server/utils"
	ws "o-trabalhador-server/websocket"
)

// workRoomHub is the realtime hub shared by the lifecycle and work-room
// handlers. Set once at startup.
var workRoomHub *ws.Hub

// RegisterOrderRoutes registers the service-order lifecycle routes
func RegisterOrderRoutes(router *gin.RouterGroup, hub *ws.Hub) {
	workRoomHub = hub

	router.POST("", createOrder)
	router.POST("/", createOrder)
	router.GET("/minhas", listContractorOrders)
	router.GET("/atribuidas", listWorkerOrders)
	router.GET("/ofertas", listPublicOffers)
	router.GET("/avaliacoes-pendentes", listPendingRatings)
	router.GET("/:id", getOrder)
	router.PUT("/:id", updateOrder)
	router.POST("/:id/aceitar", acceptOrder)
	router.POST("/:id/negar", denyOrder)
	router.POST("/:id/iniciar", startOrder)
	router.POST("/:id/cancelar", cancelOrder)
	router.POST("/:id/finalizar", completeOrder)
	router.POST("/:id/avaliar", rateOrder)
}

// orderByID loads an order inside the given db handle, locking the row when
// the handle is a transaction.
func orderByID(tx *gorm.DB, id string, lock bool) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// createOrder creates a service order. Targeting a worker puts the order in
// pendente; leaving trabalhador_id unset publishes it as a public offer.
func createOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.ServiceOrderCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	if !utils.IsValidUF(req.State) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state code"})
		return
	}
	if req.PostalCode != "" && !utils.IsValidCEP(req.PostalCode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CEP"})
		return
	}

	status := models.StatusPublicOffer
	if req.WorkerID != nil {
		if *req.WorkerID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot assign an order to yourself"})
			return
		}
		var prof models.ProfessionalProfile
		if err := database.DB.Where("user_id = ?", *req.WorkerID).First(&prof).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Worker not found"})
			return
		}
		status = models.StatusPending
	}

	order := models.ServiceOrder{
		ContractorID:   userID,
		WorkerID:       req.WorkerID,
		Title:          req.Title,
		Description:    req.Description,
		Skill:          req.Skill,
		Value:          req.Value,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Status:         status,
		Street:         req.Street,
		Number:         req.Number,
		District:       req.District,
		City:           req.City,
		State:          strings.ToUpper(req.State),
		PostalCode:     req.PostalCode,
		NeedsTransport: req.NeedsTransport,
		NeedsTools:     req.NeedsTools,
		NeedsMeal:      req.NeedsMeal,
		NeedsHelper:    req.NeedsHelper,
		Notes:          req.Notes,
	}

	if err := database.DB.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	if req.WorkerID != nil {
		workRoomHub.SendToUser(*req.WorkerID, &ws.Event{
			Type:      "proposta",
			OrderID:   order.ID,
			SenderID:  userID,
			Timestamp: time.Now(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "ordem": order})
}

// listContractorOrders returns the orders the caller created
func listContractorOrders(c *gin.Context) {
	userID := c.GetUint("user_id")

	var orders []models.ServiceOrder
	if err := database.DB.Where("contratante_id = ?", userID).
		Preload("Worker").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ordens": orders, "total": len(orders)})
}

// listWorkerOrders returns orders assigned or proposed to the caller
func listWorkerOrders(c *gin.Context) {
	userID := c.GetUint("user_id")

	var orders []models.ServiceOrder
	if err := database.DB.Where("trabalhador_id = ?", userID).
		Preload("Contractor").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ordens": orders, "total": len(orders)})
}

// listPublicOffers returns open public offers matching the worker's skills
func listPublicOffers(c *gin.Context) {
	userID := c.GetUint("user_id")

	var prof models.ProfessionalProfile
	if err := database.DB.Where("user_id = ?", userID).First(&prof).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Professional profile required"})
		return
	}

	query := database.DB.Where("status = ? AND trabalhador_id IS NULL", models.StatusPublicOffer).
		Where("contratante_id <> ?", userID)
	if len(prof.Skills) > 0 {
		query = query.Where("habilidade = ANY(?)", prof.Skills)
	}

	var orders []models.ServiceOrder
	if err := query.Preload("Contractor").Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch offers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ofertas": orders, "total": len(orders)})
}

// listPendingRatings returns completed orders of the caller still awaiting
// the contractor's rating.
func listPendingRatings(c *gin.Context) {
	userID := c.GetUint("user_id")

	var orders []models.ServiceOrder
	if err := database.DB.
		Where("contratante_id = ? AND status = ? AND avaliado_pelo_contratante = ?",
			userID, models.StatusCompleted, false).
		Preload("Worker").
		Order("concluida_em DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending ratings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ordens": orders, "total": len(orders)})
}

// getOrder returns a single order. Parties see everything; other workers
// may inspect a public offer before claiming it.
func getOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var order models.ServiceOrder
	if err := database.DB.
		Preload("Contractor").
		Preload("Worker").
		First(&order, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	role := order.RoleFor(userID)
	if role == models.RoleVisitor && order.Status != models.StatusPublicOffer {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ordem":   order,
		"papel":   role,
		"acoes":   order.AllowedActions(role),
	})
}

// updateOrder edits an order while it is still open
func updateOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.ServiceOrderUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if req.State != "" && !utils.IsValidUF(req.State) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state code"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionEdit) {
			return errForbidden
		}

		if req.Title != "" {
			order.Title = req.Title
		}
		if req.Description != "" {
			order.Description = req.Description
		}
		if req.Skill != "" {
			order.Skill = req.Skill
		}
		if req.Value != nil {
			order.Value = req.Value
		}
		if req.StartsAt != nil {
			order.StartsAt = req.StartsAt
		}
		if req.EndsAt != nil {
			order.EndsAt = req.EndsAt
		}
		if req.Street != "" {
			order.Street = req.Street
		}
		if req.Number != "" {
			order.Number = req.Number
		}
		if req.District != "" {
			order.District = req.District
		}
		if req.City != "" {
			order.City = req.City
		}
		if req.State != "" {
			order.State = strings.ToUpper(req.State)
		}
		if req.PostalCode != "" {
			order.PostalCode = req.PostalCode
		}
		if req.NeedsTransport != nil {
			order.NeedsTransport = *req.NeedsTransport
		}
		if req.NeedsTools != nil {
			order.NeedsTools = *req.NeedsTools
		}
		if req.NeedsMeal != nil {
			order.NeedsMeal = *req.NeedsMeal
		}
		if req.NeedsHelper != nil {
			order.NeedsHelper = *req.NeedsHelper
		}
		if req.Notes != "" {
			order.Notes = req.Notes
		}

		return tx.Save(order).Error
	})

	respondTransition(c, err, "Order updated")
}

// acceptOrder lets the targeted worker accept a proposal, or any matching
// professional claim a public offer. The row lock makes concurrent claims
// on the same offer serialize; the second claimer fails the status check.
// A targeted proposal needs no profile check: the contractor already picked
// that worker.
func acceptOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var contractorID uint
	var orderID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionAccept) {
			return errForbidden
		}

		updates := map[string]interface{}{
			"status":    models.StatusAccepted,
			"aceita_em": time.Now(),
		}
		if order.Status == models.StatusPublicOffer {
			// Claiming an open offer requires an available professional
			// with the matching skill
			var prof models.ProfessionalProfile
			if err := tx.Where("user_id = ?", userID).First(&prof).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errForbidden
				}
				return err
			}
			if !prof.Available || !prof.HasSkill(order.Skill) {
				return errForbidden
			}
			updates["trabalhador_id"] = userID
		}

		contractorID = order.ContractorID
		orderID = order.ID
		return tx.Model(order).Updates(updates).Error
	})
	if err != nil {
		respondTransition(c, err, "")
		return
	}

	workRoomHub.SendToUser(contractorID, &ws.Event{
		Type:      "proposta_aceita",
		OrderID:   orderID,
		SenderID:  userID,
		Timestamp: time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order accepted"})
}

// denyOrder removes a proposal from the targeted worker's queue. The order
// returns to the public pool with the worker cleared.
func denyOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var contractorID uint
	var orderID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionDeny) {
			return errForbidden
		}

		contractorID = order.ContractorID
		orderID = order.ID
		return tx.Model(order).Updates(map[string]interface{}{
			"trabalhador_id": nil,
			"status":         models.StatusPublicOffer,
		}).Error
	})
	if err != nil {
		respondTransition(c, err, "")
		return
	}

	workRoomHub.SendToUser(contractorID, &ws.Event{
		Type:      "proposta_negada",
		OrderID:   orderID,
		SenderID:  userID,
		Timestamp: time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Proposal denied"})
}

// startOrder moves an accepted order into execution
func startOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionStart) {
			return errForbidden
		}

		return tx.Model(order).Updates(map[string]interface{}{
			"status":      models.StatusInProgress,
			"iniciada_em": time.Now(),
		}).Error
	})

	respondTransition(c, err, "Order started")
}

// cancelOrder cancels an order with a mandatory justification. Allowed for
// the contractor while the order is open and for either party while active.
func cancelOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if !utils.TrimmedNonEmpty(req.Reason) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cancellation requires a justification"})
		return
	}

	var orderID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionCancel) {
			return errForbidden
		}

		orderID = order.ID
		return tx.Model(order).Updates(map[string]interface{}{
			"status":              models.StatusCancelled,
			"motivo_cancelamento": req.Reason,
			"cancelada_em":        time.Now(),
		}).Error
	})
	if err != nil {
		respondTransition(c, err, "")
		return
	}

	workRoomHub.CloseRoom(orderID, string(models.StatusCancelled))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled"})
}

// completeOrder closes an active order. The worker submits a completion
// report and leaves the rating pending; the contractor may complete and
// rate in the same atomic payload.
func completeOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if req.Rating != nil {
		if err := req.Rating.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating", "message": err.Error()})
			return
		}
	}

	var orderID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		role := order.RoleFor(userID)
		if !order.Allows(role, models.ActionComplete) {
			return errForbidden
		}
		// Only the contractor can attach the rating
		if req.Rating != nil && role != models.RoleContractor {
			return errForbidden
		}

		updates := map[string]interface{}{
			"status":              models.StatusCompleted,
			"relatorio_conclusao": req.Report,
			"concluida_em":        time.Now(),
		}
		if req.Rating != nil {
			for column, value := range req.Rating.ColumnUpdates() {
				updates[column] = value
			}
		}
		orderID = order.ID

		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return err
		}
		if req.Rating != nil && order.WorkerID != nil {
			return refreshWorkerRating(tx, *order.WorkerID)
		}
		return nil
	})
	if err != nil {
		respondTransition(c, err, "")
		return
	}

	workRoomHub.CloseRoom(orderID, string(models.StatusCompleted))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order completed"})
}

// rateOrder lets the contractor rate a completed, still unrated order
func rateOrder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.RatingPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating", "message": err.Error()})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order, err := orderByID(tx, c.Param("id"), true)
		if err != nil {
			return err
		}
		if !order.Allows(order.RoleFor(userID), models.ActionRate) {
			return errForbidden
		}

		if err := tx.Model(order).Updates(req.ColumnUpdates()).Error; err != nil {
			return err
		}
		if order.WorkerID != nil {
			return refreshWorkerRating(tx, *order.WorkerID)
		}
		return nil
	})

	respondTransition(c, err, "Order rated")
}

// refreshWorkerRating recomputes the professional's denormalized aggregate
// from the criterion columns of all rated orders.
func refreshWorkerRating(tx *gorm.DB, workerID uint) error {
	var agg struct {
		Media float64
		Total int
	}
	err := tx.Model(&models.ServiceOrder{}).
		Select(`COALESCE(AVG((nota_pontualidade + nota_comunicacao + nota_atencao_cliente +
			nota_atencao_detalhes + nota_organizacao + nota_velocidade_execucao +
			nota_proatividade) / 7.0), 0) AS media, COUNT(*) AS total`).
		Where("trabalhador_id = ? AND avaliado_pelo_contratante = ?", workerID, true).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.ProfessionalProfile{}).
		Where("user_id = ?", workerID).
		Updates(map[string]interface{}{
			"media_avaliacoes": agg.Media,
			"total_avaliacoes": agg.Total,
		}).Error
}

// errForbidden marks a transition rejected by the action table
var errForbidden = errors.New("forbidden transition")

// respondTransition translates transaction errors into HTTP answers
func respondTransition(c *gin.Context, err error, okMessage string) {
	switch {
	case err == nil:
		if okMessage != "" {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": okMessage})
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Action not allowed for this order state"})
	default:
		log.Printf("❌ Order transition failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
