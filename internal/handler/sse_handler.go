package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/sse"
	"github.com/GTDGit/esim_api/internal/utils"
)

const sseHeartbeat = 30 * time.Second

// SSEHandler streams sync run progress to the back office.
type SSEHandler struct {
	hub *sse.Hub
	jwt *utils.JWTManager
}

func NewSSEHandler(hub *sse.Hub, jwt *utils.JWTManager) *SSEHandler {
	return &SSEHandler{hub: hub, jwt: jwt}
}

// Stream handles GET /v1/admin/sse?token=<jwt>
//
// On connect the stream replays the latest event of every run still in
// flight, then forwards live events with a heartbeat between them.
func (h *SSEHandler) Stream(c *gin.Context) {
	claims, err := h.jwt.Validate(c.Query("token"))
	if err != nil {
		utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if claims.Role != models.RoleAdmin {
		utils.Error(c, 403, "FORBIDDEN", "Insufficient role")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe("admin-" + strconv.Itoa(claims.UserID))
	defer sub.Close()

	c.SSEvent("connected", gin.H{"subscriber": sub.ID, "timestamp": utils.NowISO()})
	for _, ev := range h.hub.InFlight() {
		c.SSEvent(string(ev.Event), ev)
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Event), ev)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"timestamp": utils.NowISO()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	log.Debug().Str("subscriber", sub.ID).Msg("SSE stream closed")
}
