package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires all HTTP routes.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	wildcard := len(corsOrigins) == 1 && corsOrigins[0] == "*"
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language"},
		AllowCredentials: !wildcard,
		MaxAge:           12 * time.Hour,
	}
	if wildcard {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.Health)
	r.GET("/anonid", h.GetAnonID)
	r.GET("/api/resources", h.Resources)

	auth := h.RequireParticipant()
	r.GET("/ws/peer", auth, h.ServeWebSocket(NewUpgrader(corsOrigins)))

	api := r.Group("/api", auth)
	{
		peer := api.Group("/peer")
		peer.POST("/join", h.JoinPeer)
		peer.POST("/leave", h.LeavePeer)
		peer.POST("/messages", h.PostPeerMessage)
		peer.GET("/messages", h.GetPeerMessages)
		peer.GET("/status", h.GetPeerStatus)

		api.POST("/chatbot", h.Chatbot)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings/mine", h.MyBookings)
	}

	if h.AdminToken != "" {
		op := r.Group("/admin", h.RequireAdmin())
		op.GET("/stats", h.HubStats)
		op.POST("/rooms/:id/end", h.EndRoom)
	}

	return r
}
