package bridge

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-easyapply-automation/internal/status"
)

// Server exposes the background to the launcher UI over HTTP.
type Server struct {
	bg     *Background
	engine *gin.Engine
}

func NewServer(bg *Background, allowedOrigins []string) *Server {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowWildcard = true
	config.AllowBrowserExtensions = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	r.Use(cors.New(config))

	s := &Server{bg: bg, engine: r}
	r.GET("/health", s.health)
	r.POST("/bridge", s.dispatch)
	r.GET("/status", s.status)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	log.Printf("🚀 Bridge listening on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// dispatch decodes one envelope and answers with exactly one reply.
func (s *Server) dispatch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, Result{Error: "could not read request body"})
		return
	}
	msg, err := Decode(body)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrUnknownAction) {
			code = http.StatusNotFound
		}
		c.JSON(code, Result{Error: err.Error()})
		return
	}
	if pageOnly(msg) {
		c.JSON(http.StatusForbidden, Result{Error: ErrPageOnly.Error()})
		return
	}
	c.JSON(http.StatusOK, s.bg.Handle(c.Request.Context(), msg))
}

// pageOnly reports lifecycle messages that only the engine itself may send.
func pageOnly(msg Message) bool {
	switch msg.(type) {
	case StatusUpdate, *StatusUpdate, ProcessComplete, *ProcessComplete:
		return true
	}
	return false
}

func (s *Server) status(c *gin.Context) {
	since, err := strconv.Atoi(c.DefaultQuery("since", "0"))
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, Result{Error: "since must be a non-negative integer"})
		return
	}
	state := s.bg.GetAutoApplyState(c.Request.Context(), GetAutoApplyState{})
	events := s.bg.Events(since)
	if events == nil {
		events = []status.Event{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   state.State,
		"events":  events,
	})
}
