package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/coinjoin-engine/internal/bitcoin"
	"github.com/rawblock/coinjoin-engine/internal/db"
)

type APIHandler struct {
	dbStore      *db.PostgresStore
	btcClient    *bitcoin.Client
	wsHub        *Hub
	pipelineRuns *pipelineRegistry
}

func SetupRouter(dbStore *db.PostgresStore, btcClient *bitcoin.Client, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://rawblock.net,https://www.rawblock.net
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore:      dbStore,
		btcClient:    btcClient,
		wsHub:        wsHub,
		pipelineRuns: newPipelineRegistry(),
	}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// Rate-limit protected endpoints to 30 req/min per IP (burst=5).
	// /pipeline/run performs O(n) RPC calls — especially important here.
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		// ── Dataflow Pipeline (typed lazy evaluation engine) ───────
		pipeline := auth.Group("/pipeline")
		{
			pipeline.POST("/run", handler.handlePipelineRun)
			pipeline.GET("/:runID/clusters", handler.handlePipelineClusters)
			pipeline.GET("/:runID/clusters/quality", handler.handlePipelineClusterQuality)
			pipeline.GET("/:runID/masks/:kind", handler.handlePipelineMasks)
		}
	}

	// Serve Static Dashboard
	r.Static("/dashboard", "./public")

	return r
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	dbConnected := h.dbStore != nil

	c.JSON(200, gin.H{
		"status": "operational",
		"engine": "RawBlock Forensics Engine v3.0",
		"capabilities": gin.H{
			"dataflow_pipeline": true,
			"ari_vi_metrics":    true,
		},
		"dbConnected": dbConnected,
	})
}
