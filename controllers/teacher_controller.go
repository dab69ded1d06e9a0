package controllers

import (
	"net/http"
	"strings"

	"itlend/app"
	"itlend/lending"

	"github.com/gin-gonic/gin"
)

const returnReminderSubject = "Rückgabe des Notebooks"

type TeacherController struct{ *Srv }

func NewTeacherController(s *Srv) *TeacherController { return &TeacherController{Srv: s} }

func (tc *TeacherController) List(c *gin.Context) {
	ts, err := tc.Registry.ListTeachers(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (tc *TeacherController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := tc.Registry.GetTeacher(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (tc *TeacherController) Create(c *gin.Context) {
	var in lending.TeacherInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t, err := tc.Registry.CreateTeacher(c.Request.Context(), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (tc *TeacherController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in lending.TeacherInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t, err := tc.Registry.UpdateTeacher(c.Request.Context(), id, in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (tc *TeacherController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := tc.Registry.DeleteTeacher(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/teacher/send-email：手动发送归还提醒
func (tc *TeacherController) SendEmail(c *gin.Context) {
	var in struct {
		RecipientEmail string `json:"recipientEmail" binding:"required,email"`
		Message        string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Message) == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "recipient email and message cannot be empty"})
		return
	}
	if err := tc.Mailer.Send(c.Request.Context(), in.RecipientEmail, returnReminderSubject, in.Message); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "error sending email"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
