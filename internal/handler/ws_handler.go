package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"threedays/internal/realtime"
	"threedays/internal/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated; origin is not the trust boundary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub       *realtime.Hub
	jwtSecret string
	logger    *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, jwtSecret: jwtSecret, logger: logger}
}

// Serve handles GET /ws?token=<jwt>. The token is checked before the
// session joins its user room; browsers cannot set an Authorization header
// on a websocket upgrade, so the token rides the query string.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = util.ExtractToken(c.Request)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	userID, err := util.ParseJWT(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, userID, h.logger)
	go client.Start()
}
