package http

import (
	"context"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	clientCookie = "huddle_ct"
	clientMaxAge = 3600 * 24 * 7
)

// ClientTokenMiddleware tags every browser with a long lived uuid cookie so
// signaling logs can be correlated across reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(clientCookie)
		if token == "" {
			token = uuid.NewString()
			c.SetCookie(clientCookie, token, clientMaxAge, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, h *Handlers, ctrl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/groups", h.listGroups)
	r.POST("/groups", h.createGroup)

	api := r.Group("/api")
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})
	registerCommentRoutes(api.Group("/comments"), h)
	api.GET("/city", h.listCities)
	api.PUT("/city", h.setCity)

	return r
}

func registerCommentRoutes(g *gin.RouterGroup, h *Handlers) {
	g.GET("", h.listComments)
	g.POST("", h.submitComment)
	g.POST("/:id/like", h.likeComment)
	g.POST("/:id/dislike", h.dislikeComment)
	g.POST("/:id/translate", h.translateComment)
}
