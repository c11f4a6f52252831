package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

type Handlers struct {
	Survey     *SurveyHandler
	Answer     *AnswerHandler
	Report     *ReportHandler
	User       *UserHandler
	Assignment *AssignmentHandler
	Auth       *AuthHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	// AnswerLimiter throttles answer submission per client; nil disables it.
	AnswerLimiter *IPRateLimiter
	Metrics       http.Handler
	Logger        *zap.Logger
}

func NewHandler(h Handlers, authService ports.AuthService, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.AnswerLimiter != nil {
		limit = cfg.AnswerLimiter.Middleware
	}
	admin := RequireRole(domain.RoleAdmin)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/google/callback", h.Auth.GoogleCallback)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(authService))

		r.Get("/me", h.User.GetMe)
		r.Patch("/me", h.User.UpdateMe)

		r.Route("/surveys", func(r chi.Router) {
			r.Get("/", h.Survey.ListSurveys)
			r.With(admin).Post("/", h.Survey.CreateSurvey)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Survey.GetSurvey)
				r.With(limit).Post("/answers", h.Answer.SubmitAnswer)
				r.Get("/answers/mine", h.Answer.ListMyAnswers)

				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Patch("/", h.Survey.UpdateSurvey)
					r.Delete("/", h.Survey.DeleteSurvey)
					r.Post("/duplicate", h.Survey.DuplicateSurvey)

					r.Post("/questions", h.Survey.AddQuestion)
					r.Put("/questions/reorder", h.Survey.ReorderQuestions)
					r.Patch("/questions/{questionID}", h.Survey.UpdateQuestion)
					r.Delete("/questions/{questionID}", h.Survey.DeleteQuestion)

					r.Get("/answers", h.Answer.ListAnswers)
					r.Get("/assignments", h.Assignment.ListForSurvey)

					r.Get("/reports", h.Report.ListReports)
					r.Post("/reports/variable", h.Report.GenerateVariable)
					r.Post("/reports/cross", h.Report.GenerateCross)
					r.Post("/reports/sample", h.Report.GenerateSample)
					r.Post("/reports/item", h.Report.GenerateItem)
				})
			})
		})

		r.With(limit).Post("/answers/batch", h.Answer.SubmitBatch)

		r.Route("/reports/{id}", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Report.GetReport)
			r.Get("/export", h.Report.ExportReport)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.User.ListUsers)
			r.Post("/", h.User.CreateUser)
			r.Get("/{id}", h.User.GetUser)
			r.Patch("/{id}", h.User.UpdateUser)
			r.Delete("/{id}", h.User.DeleteUser)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.With(admin).Post("/", h.Assignment.Assign)
			r.Get("/mine", h.Assignment.ListMine)
			r.Post("/{id}/start", h.Assignment.Start)
			r.Post("/{id}/complete", h.Assignment.Complete)
		})
	})

	return otelhttp.NewHandler(r, "fieldsurvey")
}
