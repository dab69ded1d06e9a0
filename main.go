package main

import (
	"log"

	"itlend/app"
	"itlend/config"
	"itlend/reminders"
	"itlend/routes"

	"github.com/robfig/cron/v3"
)

func main() {
	config.LoadEnv()

	application, err := app.New()
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer application.Close()

	routes.RegisterRoutes(application.Router, application)

	// 逾期提醒
	job := reminders.NewJob(
		application.Bookings,
		application.Mailer,
		reminders.NewRedisMarker(application.RDB),
		application.Log,
	)
	c := cron.New()
	if _, err := job.Schedule(c, application.Config.ReminderSchedule); err != nil {
		log.Fatalf("reminder schedule: %v", err)
	}
	c.Start()
	defer c.Stop()

	port := application.Config.Port
	application.Log.Info("listening", "port", port)
	if err := application.Router.Run(":" + port); err != nil {
		application.Log.Error("server stopped", "err", err)
	}
}
