package controllers

import (
	"net/http"

	"itlend/app"
	"itlend/lending"

	"github.com/gin-gonic/gin"
)

type StudentController struct{ *Srv }

func NewStudentController(s *Srv) *StudentController { return &StudentController{Srv: s} }

// 列表（?search= 模糊匹配用户名/姓名）
func (sc *StudentController) List(c *gin.Context) {
	ss, err := sc.Registry.ListStudents(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ss)
}

// GET /api/student/search?username=
func (sc *StudentController) Search(c *gin.Context) {
	ss, err := sc.Registry.ListStudents(c.Request.Context(), c.Query("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ss)
}

// 单个学生，带全部借用记录
func (sc *StudentController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := sc.Registry.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (sc *StudentController) Create(c *gin.Context) {
	var in lending.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	s, err := sc.Registry.CreateStudent(c.Request.Context(), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (sc *StudentController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in lending.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	s, err := sc.Registry.UpdateStudent(c.Request.Context(), id, in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (sc *StudentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := sc.Registry.DeleteStudent(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
