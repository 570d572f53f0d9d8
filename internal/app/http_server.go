package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shiftsync/internal/store"
	"shiftsync/internal/usecase"
)

// Router returns the HTTP surface used to trigger syncs and record shifts
// from other devices on the network (kiosks, terminals).
func (a *App) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.POST("/sync", func(c *gin.Context) {
		res, err := a.SyncOnce(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(res), gin.H{"status": res.String(), "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": res.String()})
	})

	r.POST("/clock-in", func(c *gin.Context) {
		var req struct {
			EmployeeIDs []string `json:"employeeIds" binding:"required,min=1"`
			At          string   `json:"at"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		at, ok := parseAt(req.At)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC3339"})
			return
		}
		if err := a.ClockIn(c.Request.Context(), req.EmployeeIDs, at); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/clock-out", func(c *gin.Context) {
		var req struct {
			EntryID      string `json:"entryId" binding:"required"`
			At           string `json:"at"`
			BreakMinutes int    `json:"breakMinutes" binding:"gte=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		at, ok := parseAt(req.At)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC3339"})
			return
		}
		if err := a.ClockOut(c.Request.Context(), req.EntryID, at, req.BreakMinutes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/timesheet", func(c *gin.Context) {
		entries, err := store.GetAll(c.Request.Context(), a.uc.Store, store.Timesheet)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	return r
}

// HTTPServer wraps the router in an http.Server. Call ListenAndServe in a
// goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	a.log.Info("http trigger server configured", slog.String("addr", addr))
	return &http.Server{Addr: addr, Handler: a.Router()}
}

func statusFor(res usecase.Result) int {
	switch res {
	case usecase.ResultBusy:
		return http.StatusConflict
	case usecase.ResultConfigError:
		return http.StatusPreconditionFailed
	case usecase.ResultTransportError:
		return http.StatusBadGateway
	case usecase.ResultStorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func parseAt(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// requestLogger provides basic request logging on slog.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("remote", c.ClientIP()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}
