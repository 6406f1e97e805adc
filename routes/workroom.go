package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"o-trabalhador-server/database"
	"o-trabalhador-server/models"
	ws "o-trabalhador-server/websocket"
)

// RegisterWorkRoomRoutes registers the work-room chat routes
func RegisterWorkRoomRoutes(router *gin.RouterGroup, hub *ws.Hub) {
	workRoomHub = hub

	router.GET("/:id/sala", getWorkRoom)
	router.POST("/:id/sala/mensagens", sendWorkRoomMessage)
}

// roomOrder loads the order and verifies the caller is one of its parties.
func roomOrder(c *gin.Context) (*models.ServiceOrder, bool) {
	userID := c.GetUint("user_id")

	var order models.ServiceOrder
	if err := database.DB.
		Preload("Contractor").
		Preload("Worker").
		First(&order, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}

	if !order.IsParty(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return &order, true
}

// getWorkRoom returns the room context: the order, both parties' public
// profiles and the message history in chronological order.
func getWorkRoom(c *gin.Context) {
	order, ok := roomOrder(c)
	if !ok {
		return
	}

	var messages []models.ChatMessage
	if err := database.DB.
		Where("ordem_id = ?", order.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	room := gin.H{
		"canal":       ws.RoomName(order.ID),
		"ordem":       order,
		"contratante": order.Contractor.Public(),
		"mensagens":   messages,
		"encerrada":   order.Status.IsTerminal(),
	}
	if order.Worker != nil {
		room["trabalhador"] = order.Worker.Public()
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sala": room})
}

// sendWorkRoomMessage persists a chat message and fans it out to the room.
// Delivery to the sender also happens through the broadcast: the client must
// not render an optimistic copy, or the message would show up twice.
func sendWorkRoomMessage(c *gin.Context) {
	userID := c.GetUint("user_id")

	order, ok := roomOrder(c)
	if !ok {
		return
	}
	if order.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Work room is closed"})
		return
	}

	var req models.ChatMessageCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	message := models.ChatMessage{
		UID:      uuid.NewString(),
		OrderID:  order.ID,
		SenderID: userID,
		Content:  content,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	workRoomHub.Broadcast <- &ws.Event{
		Type:      "mensagem",
		UID:       message.UID,
		OrderID:   order.ID,
		SenderID:  userID,
		Content:   content,
		Timestamp: message.CreatedAt,
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "mensagem": message})
}

// RegisterWorkRoomWebSocket registers the realtime endpoint. Auth happens via
// token query parameter because browsers cannot set WebSocket headers.
func RegisterWorkRoomWebSocket(router *gin.RouterGroup, hub *ws.Hub) {
	router.GET("/ws/sala/:id", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var order models.ServiceOrder
		if err := database.DB.First(&order, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if !order.IsParty(userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		if order.Status.IsTerminal() {
			c.JSON(http.StatusConflict, gin.H{"error": "Work room is closed"})
			return
		}

		hub.JoinRoom(userID, order.ID)
		ws.ServeWebSocket(hub, c.Writer, c.Request, userID)
	})
}
