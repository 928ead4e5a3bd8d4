package http

import (
	"net/http"

	"github.com/dkeye/Huddle/internal/app/groups"
	"github.com/dkeye/Huddle/internal/app/moderation"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const cityKey = "city"

type Handlers struct {
	Groups *groups.Service
	Board  *moderation.Board
}

func (h *Handlers) listGroups(c *gin.Context) {
	gs, err := h.Groups.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list groups")
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gs)
}

func (h *Handlers) createGroup(c *gin.Context) {
	var req struct {
		Name    string     `json:"name"`
		Members memberList `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.Groups.Create(c.Request.Context(), req.Name, req.Members)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handlers) listComments(c *gin.Context) {
	c.JSON(http.StatusOK, h.Board.List())
}

func (h *Handlers) submitComment(c *gin.Context) {
	var req struct {
		Text string      `json:"text"`
		City domain.City `json:"city"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.City == "" {
		req.City = sessionCity(c)
	}
	comment, err := h.Board.Submit(req.Text, req.City)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handlers) likeComment(c *gin.Context) {
	comment, err := h.Board.Like(domain.CommentID(c.Param("id")))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handlers) dislikeComment(c *gin.Context) {
	comment, removed, err := h.Board.Dislike(domain.CommentID(c.Param("id")))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment, "removed": removed})
}

func (h *Handlers) translateComment(c *gin.Context) {
	comment, err := h.Board.Translate(c.Request.Context(), domain.CommentID(c.Param("id")))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handlers) listCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": domain.Cities, "selected": sessionCity(c)})
}

func (h *Handlers) setCity(c *gin.Context) {
	var req struct {
		City string `json:"city"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	city, err := domain.ParseCity(req.City)
	if err != nil {
		abortWith(c, err)
		return
	}
	sess := sessions.Default(c)
	sess.Set(cityKey, string(city))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

// sessionCity is the city picked earlier in this browser session.
func sessionCity(c *gin.Context) domain.City {
	if s, ok := sessions.Default(c).Get(cityKey).(string); ok {
		if city, err := domain.ParseCity(s); err == nil {
			return city
		}
	}
	return domain.DefaultCity
}
