package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/appsup/internal/journal"
	"github.com/loykin/appsup/internal/metrics"
	"github.com/loykin/appsup/internal/supervisor"
)

// DefaultPollInterval is the documented cadence at which the dashboard polls
// GET /api/status. It is echoed in every status response so the client does
// not hardcode it.
const DefaultPollInterval = 30 * time.Second

// Router exposes the supervisor to the local dashboard.
// Endpoints (under basePath):
//
//	GET  /api/status    consolidated status for polling
//	POST /api/start     Supervisor.Start
//	POST /api/stop      Supervisor.Stop
//	POST /api/restart   Supervisor.Restart
//	GET  /api/events    recent journal entries (?limit=N)
//	GET  /metrics       Prometheus metrics
type Router struct {
	sup      *supervisor.Supervisor
	jr       *journal.Journal
	basePath string
}

// NewRouter constructs a Router. jr may be nil when the journal is disabled.
func NewRouter(sup *supervisor.Supervisor, jr *journal.Journal, basePath string) *Router {
	return &Router{sup: sup, jr: jr, basePath: sanitizeBase(basePath)}
}

// Handler returns a gin-powered http.Handler that can be mounted anywhere.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/api/status", r.handleStatus)
	group.POST("/api/start", r.handleStart)
	group.POST("/api/stop", r.handleStop)
	group.POST("/api/restart", r.handleRestart)
	group.GET("/api/events", r.handleEvents)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router. The
// listener is bound before returning, so a busy port fails here instead of in
// a background goroutine. Shut it down via http.Server's Close/Shutdown.
func NewServer(addr string, sup *supervisor.Supervisor, jr *journal.Journal) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	r := NewRouter(sup, jr, "")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute, // start can poll readiness for minutes
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	return srv, nil
}

type errorResp struct {
	Error string `json:"error"`
}

type statusResp struct {
	supervisor.Snapshot
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

type opResp struct {
	supervisor.Snapshot
	Error string `json:"error,omitempty"`
}

func (r *Router) handleStatus(c *gin.Context) {
	snap := r.sup.Status(c.Request.Context())
	c.JSON(http.StatusOK, statusResp{
		Snapshot:            snap,
		PollIntervalSeconds: int(DefaultPollInterval.Seconds()),
	})
}

func (r *Router) handleStart(c *gin.Context) {
	snap, err := r.sup.Start(c.Request.Context())
	writeOp(c, snap, err)
}

func (r *Router) handleStop(c *gin.Context) {
	snap, err := r.sup.Stop(c.Request.Context())
	writeOp(c, snap, err)
}

func (r *Router) handleRestart(c *gin.Context) {
	snap, err := r.sup.Restart(c.Request.Context())
	writeOp(c, snap, err)
}

// writeOp reports partial failure in the payload, not the status code: the
// snapshot always reflects what actually happened, and only a lock conflict
// is a protocol-level error.
func writeOp(c *gin.Context, snap supervisor.Snapshot, err error) {
	if errors.Is(err, supervisor.ErrLocked) {
		c.JSON(http.StatusConflict, errorResp{Error: err.Error()})
		return
	}
	resp := opResp{Snapshot: snap}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleEvents(c *gin.Context) {
	if r.jr == nil {
		c.JSON(http.StatusNotFound, errorResp{Error: "journal disabled"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := r.jr.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if events == nil {
		events = []journal.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimSuffix(bp, "/")
}
