package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const defaultAllowOrigins = "http://localhost:3000,http://localhost:5173"

// CORS - middleware для настройки Cross-Origin Resource Sharing.
// Пустой origins - локальные dev-серверы фронтенда.
func CORS(origins string) fiber.Handler {
	if origins == "" {
		origins = defaultAllowOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Accept-Language,Authorization",
		AllowCredentials: origins != "*",
	})
}
