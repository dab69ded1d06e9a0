package controllers

import (
	"net/http"

	"itlend/app"
	"itlend/lending"
	"itlend/models"

	"github.com/gin-gonic/gin"
)

type LaptopController struct{ *Srv }

func NewLaptopController(s *Srv) *LaptopController { return &LaptopController{Srv: s} }

func (lc *LaptopController) List(c *gin.Context) {
	ls, err := lc.Registry.ListLaptops(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

// 当前可借的电脑
func (lc *LaptopController) ListAvailable(c *gin.Context) {
	out := []models.Laptop{}
	for lp, err := range lc.Ledger.ListAvailable(c.Request.Context()) {
		if err != nil {
			writeErr(c, err)
			return
		}
		out = append(out, lp)
	}
	c.JSON(http.StatusOK, out)
}

func (lc *LaptopController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	l, err := lc.Registry.GetLaptop(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (lc *LaptopController) Create(c *gin.Context) {
	var in lending.LaptopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	l, err := lc.Registry.CreateLaptop(c.Request.Context(), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (lc *LaptopController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in lending.LaptopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	l, err := lc.Registry.UpdateLaptop(c.Request.Context(), id, in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (lc *LaptopController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := lc.Registry.DeleteLaptop(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// 手动修复：按未归还记录重算可用状态
func (lc *LaptopController) Reconcile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	available, err := lc.Ledger.Reconcile(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"id": id, "isAvailable": available})
}
