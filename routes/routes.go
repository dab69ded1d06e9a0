package routes

import (
	"net/http"

	"itlend/app"
	"itlend/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	bookingCtl := controllers.NewBookingController(s)
	laptopCtl := controllers.NewLaptopController(s)
	studentCtl := controllers.NewStudentController(s)
	teacherCtl := controllers.NewTeacherController(s)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// 借用记录
	// ------------------------------
	bookings := r.Group("/api/booking")
	{
		bookings.GET("", bookingCtl.List)
		bookings.GET("/notreturned", bookingCtl.ListNotReturned)
		bookings.GET("/returned", bookingCtl.ListReturned)
		bookings.GET("/by-student/:username", bookingCtl.ByStudent)
		bookings.GET("/by-laptop/:laptopId", bookingCtl.ByLaptop)
		bookings.GET("/:id", bookingCtl.Get)
		bookings.POST("", bookingCtl.Create)
		bookings.PUT("/:id", bookingCtl.Update)
		bookings.POST("/:id/return", bookingCtl.Return)
		bookings.DELETE("/:id", bookingCtl.Delete)
	}

	// ------------------------------
	// 电脑
	// ------------------------------
	laptops := r.Group("/api/laptop")
	{
		laptops.GET("", laptopCtl.List)
		laptops.GET("/available", laptopCtl.ListAvailable)
		laptops.GET("/:id", laptopCtl.Get)
		laptops.POST("", laptopCtl.Create)
		laptops.PUT("/:id", laptopCtl.Update)
		laptops.DELETE("/:id", laptopCtl.Delete)
		laptops.POST("/:id/reconcile", laptopCtl.Reconcile)
	}

	// ------------------------------
	// 学生
	// ------------------------------
	students := r.Group("/api/student")
	{
		students.GET("", studentCtl.List) // ?search=
		students.GET("/search", studentCtl.Search)
		students.GET("/:id", studentCtl.Get)
		students.POST("", studentCtl.Create)
		students.PUT("/:id", studentCtl.Update)
		students.DELETE("/:id", studentCtl.Delete)
	}

	// ------------------------------
	// 老师
	// ------------------------------
	teachers := r.Group("/api/teacher")
	{
		teachers.GET("", teacherCtl.List) // ?search=
		teachers.GET("/:id", teacherCtl.Get)
		teachers.POST("", teacherCtl.Create)
		teachers.PUT("/:id", teacherCtl.Update)
		teachers.DELETE("/:id", teacherCtl.Delete)
		teachers.POST("/send-email", teacherCtl.SendEmail)
	}
}
