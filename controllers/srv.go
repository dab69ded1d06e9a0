// controllers/srv.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"itlend/app"
	"itlend/lending"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Bookings *lending.Service
	Registry *lending.Registry
	Ledger   *lending.Ledger
	Mailer   lending.Notifier
	Log      *slog.Logger
	Cfg      app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Bookings: a.Bookings,
		Registry: a.Registry,
		Ledger:   a.Bookings.Ledger(),
		Mailer:   a.Mailer,
		Log:      a.Log,
		Cfg:      a.Config,
	}
}

// --- helpers ---

// paramID 解析路径里的数字 ID，失败时直接回 400
func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name, "field": name})
		return 0, false
	}
	return uint(n), true
}

// 统一错误映射：400 / 404 / 409 / 500
func writeErr(c *gin.Context, err error) {
	var ve *lending.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, app.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, lending.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, lending.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal server error"})
	}
}

// reconcile 在不维护可用性的写操作之后重新计算电脑状态
func (s *Srv) reconcile(c *gin.Context, laptopIDs ...uint) {
	seen := make(map[uint]bool, len(laptopIDs))
	for _, id := range laptopIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.Ledger.Reconcile(c.Request.Context(), id); err != nil && !errors.Is(err, lending.ErrNotFound) {
			s.Log.Error("reconcile after booking write failed", "laptop_id", id, "err", err, "cause", errors.Unwrap(err))
		}
	}
}
