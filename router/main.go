package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahilchouksey/admission-api/config"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/handlers"
	admin_handlers "github.com/sahilchouksey/admission-api/handlers/admin"
	application_handlers "github.com/sahilchouksey/admission-api/handlers/application"
	profile_handlers "github.com/sahilchouksey/admission-api/handlers/profile"
	university_handlers "github.com/sahilchouksey/admission-api/handlers/university"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/services/storage"
	"github.com/sahilchouksey/admission-api/utils"
	"github.com/sahilchouksey/admission-api/utils/auth"
	"github.com/sahilchouksey/admission-api/utils/cache"
	"github.com/sahilchouksey/admission-api/utils/middleware"
)

// Dependencies are the collaborators the routes are wired to. Zero values are
// filled from the environment by NewDependencies.
type Dependencies struct {
	JWTManager *auth.JWTManager
	Locker     cache.Locker
	Archiver   services.Archiver
	RateLimit  int
}

// NewDependencies builds the JWT manager, student lock and import archive from env.
// Redis and Spaces are optional; the API falls back to an in-process lock and skips archiving.
func NewDependencies(env *config.EnviornmentVariable) (*Dependencies, func()) {
	deps := &Dependencies{
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret: env.JWT_SECRET,
			Expiry: 24 * time.Hour,
			Issuer: env.JWT_ISSUER,
		}),
		RateLimit: 100,
	}
	cleanup := func() {}

	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warnf("Failed to connect to Redis: %v. Using in-process student lock.", err)
		} else {
			deps.Locker = cache.NewRedisLocker(redisCache, 10*time.Second, 3*time.Second)
			cleanup = func() { redisCache.Close() }
		}
	}
	if deps.Locker == nil {
		deps.Locker = cache.NewLocalLocker()
	}

	if spacesConfig, ok := storage.ConfigFromEnv(); ok {
		client, err := storage.NewSpacesClient(spacesConfig)
		if err != nil {
			log.Warnf("Failed to create Spaces client: %v. Import archiving disabled.", err)
		} else {
			deps.Archiver = client
		}
	}

	return deps, cleanup
}

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable, deps *Dependencies) {
	db := store.GetDB()

	// Services share the injected handle
	hierarchyService := services.NewHierarchyService(db)
	rankingService := services.NewRankingService(db)
	allocationService := services.NewAllocationService(db, rankingService, deps.Locker)
	importService := services.NewImportService(db, deps.Archiver)
	profileService := services.NewProfileService(db)
	accountService := services.NewAccountService(db, allocationService)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager, db)

	universityHandler := university_handlers.NewUniversityHandler(hierarchyService)
	applicationHandler := application_handlers.NewApplicationHandler(allocationService)
	profileHandler := profile_handlers.NewProfileHandler(profileService)
	adminHandler := admin_handlers.NewAdminHandler(allocationService, importService, accountService)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: deps.RateLimit,
		RateLimitWindow:   1 * time.Minute,
	})

	// Public probes
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 group
	api := app.Group("/api/v1")

	// Hierarchy browse (public)
	api.Get("/universities", universityHandler.ListUniversities)
	api.Get("/universities/:id", universityHandler.GetUniversity)
	api.Get("/colleges/:id/departments", universityHandler.ListDepartments)

	// Ranking flags the caller's entry when a token is present
	api.Get("/departments/:id/ranking", authMiddleware.Optional(), applicationHandler.Ranking)

	// Applications (protected)
	applications := api.Group("/applications", authMiddleware.Required())
	applications.Post("/", applicationHandler.Submit)
	applications.Get("/me", applicationHandler.ListMine)
	applications.Delete("/:department_id", applicationHandler.Withdraw)

	// Profile (protected)
	profile := api.Group("/profile", authMiddleware.Required())
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)

	// ==================== Admin ====================

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	admin.Post("/universities", middleware.AdminAuditLog(db, "university_create", "universities"), universityHandler.CreateUniversity)
	admin.Put("/universities/:id", middleware.AdminAuditLog(db, "university_update", "universities"), universityHandler.UpdateUniversity)
	admin.Delete("/universities/:id", middleware.AdminAuditLog(db, "university_delete", "universities"), universityHandler.DeleteUniversity)

	admin.Post("/colleges", middleware.AdminAuditLog(db, "college_create", "colleges"), universityHandler.CreateCollege)
	admin.Delete("/colleges/:id", middleware.AdminAuditLog(db, "college_delete", "colleges"), universityHandler.DeleteCollege)

	admin.Post("/departments", middleware.AdminAuditLog(db, "department_create", "departments"), universityHandler.CreateDepartment)
	admin.Put("/departments/:id", middleware.AdminAuditLog(db, "department_update", "departments"), universityHandler.UpdateDepartment)
	admin.Delete("/departments/:id", middleware.AdminAuditLog(db, "department_delete", "departments"), universityHandler.DeleteDepartment)

	admin.Delete("/students/:id", middleware.AdminAuditLog(db, "student_delete", "users"), adminHandler.DeleteStudent)
	admin.Post("/students/:id/revoke-tokens", middleware.AdminAuditLog(db, "token_revoke", "users"), adminHandler.RevokeTokens)

	admin.Post("/import-csv", middleware.AdminAuditLog(db, "csv_import", "imports"), adminHandler.ImportCSV)
	admin.Get("/imports", adminHandler.ListImports)
	admin.Post("/reconcile", middleware.AdminAuditLog(db, "counter_reconcile", "departments"), adminHandler.Reconcile)

	admin.Get("/audit-logs", utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))

	log.Info("Routes registered")
}
