package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)

	mode := api.Group("/mode", handler.AuthRequired)
	mode.Get("", handler.GetMode)
	mode.Post("/refresh", handler.RefreshMode)
	mode.Post("/postpartum", handler.SwitchToPostpartum)
	mode.Post("/pregnancy", handler.SwitchToPregnancy)
	api.Post("/onboarding/choice", handler.AuthRequired, handler.OnboardingChoice)

	api.Get("/profile", handler.AuthRequired, handler.GetProfile)
	api.Put("/profile", handler.AuthRequired, handler.UpdateProfile)
	api.Get("/pregnancy", handler.AuthRequired, handler.GetPregnancy)
	api.Put("/pregnancy", handler.AuthRequired, handler.SavePregnancy)

	emergency := api.Group("/emergency", handler.AuthRequired)
	emergency.Get("/contacts", handler.ListContacts)
	emergency.Post("/contacts", handler.AddContact)
	emergency.Delete("/contacts/:id", handler.DeleteContact)
	emergency.Get("/alerts", handler.ListAlerts)
	emergency.Post("/alerts", handler.TriggerAlert)
	emergency.Get("/roadmap", handler.GetRoadmap)
	emergency.Post("/roadmap/:itemID/toggle", handler.ToggleRoadmapItem)
	emergency.Put("/roadmap/reminder", handler.SetWeeklyReminder)

	symptoms := api.Group("/symptoms", handler.AuthRequired)
	symptoms.Get("", handler.ListSymptoms)
	symptoms.Post("", handler.LogSymptom)

	appointments := api.Group("/appointments", handler.AuthRequired)
	appointments.Get("", handler.ListAppointments)
	appointments.Post("", handler.CreateAppointment)
	appointments.Delete("/:id", handler.DeleteAppointment)

	babies := api.Group("/babies", handler.AuthRequired)
	babies.Get("", handler.ListBabies)
	babies.Post("", handler.AddBaby)
	babies.Get("/:id/logs", handler.ListBabyLogs)
	babies.Post("/:id/logs", handler.AddBabyLog)

	chat := api.Group("/chat", handler.AuthRequired)
	chat.Get("", handler.ChatHistory)
	chat.Post("", handler.Chat)

	api.Get("/healthcare/nearby", handler.AuthRequired, handler.NearbyHealthcare)

	functions := api.Group("/functions", handler.AuthRequired)
	functions.Post("/send-sms", handler.SendSMS)
	functions.Post("/chat", handler.ChatFunction)
}
