// controllers/booking_controller.go
package controllers

import (
	"net/http"

	"itlend/app"
	"itlend/lending"

	"github.com/gin-gonic/gin"
)

type BookingController struct{ *Srv }

func NewBookingController(s *Srv) *BookingController { return &BookingController{Srv: s} }

// 全部借用记录，按借出时间倒序
func (bc *BookingController) List(c *gin.Context) {
	vs, err := bc.Bookings.List(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (bc *BookingController) ListNotReturned(c *gin.Context) {
	vs, err := bc.Bookings.ListOpen(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (bc *BookingController) ListReturned(c *gin.Context) {
	vs, err := bc.Bookings.ListClosed(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (bc *BookingController) ByStudent(c *gin.Context) {
	vs, err := bc.Bookings.ListByStudent(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (bc *BookingController) ByLaptop(c *gin.Context) {
	id, ok := paramID(c, "laptopId")
	if !ok {
		return
	}
	vs, err := bc.Bookings.ListByLaptop(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (bc *BookingController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := bc.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// 借出
func (bc *BookingController) Create(c *gin.Context) {
	var in lending.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	v, err := bc.Bookings.Create(c.Request.Context(), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// 整体替换；之后对旧电脑和新电脑各做一次 reconcile
func (bc *BookingController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in lending.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	prev, err := bc.Bookings.Get(ctx, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	v, err := bc.Bookings.Update(ctx, id, in)
	if err != nil {
		writeErr(c, err)
		return
	}
	bc.reconcile(c, prev.Laptop.ID, v.Laptop.ID)

	// 重新读取，带上 reconcile 之后的可用状态
	if fresh, err := bc.Bookings.Get(ctx, id); err == nil {
		v = fresh
	}
	c.JSON(http.StatusOK, v)
}

// 归还
func (bc *BookingController) Return(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := bc.Bookings.Return(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (bc *BookingController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := bc.Bookings.Delete(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	bc.reconcile(c, v.Laptop.ID)
	c.Status(http.StatusNoContent)
}
