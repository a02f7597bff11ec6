package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/conversation"
	httpmiddleware "github.com/pawbook/pawbook/internal/http/middleware"
	"github.com/pawbook/pawbook/internal/webchat"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unregistered, so a stripped-down deployment (no admin surface, no
// websocket widget) still starts.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// ChatRateLimit caps per-IP requests/sec on the public chat routes;
	// zero disables the limiter.
	ChatRateLimit float64
	ChatBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.ConversationHandler != nil {
			api.Route("/chat", func(chat chi.Router) {
				if cfg.ChatRateLimit > 0 {
					chat.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatBurst))
				}
				chat.Post("/message", cfg.ConversationHandler.Message)
				chat.Get("/sessions/{id}", cfg.ConversationHandler.GetSession)
				if cfg.WebchatHandler != nil {
					chat.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
				}
			})
			api.Post("/intent/classify", cfg.ConversationHandler.ClassifyIntent)
			api.Post("/extract/datetime", cfg.ConversationHandler.ExtractDateTime)
		}

		if cfg.AppointmentsHandler != nil {
			api.Get("/services", cfg.AppointmentsHandler.ListServices)
			api.Route("/availability", func(avail chi.Router) {
				avail.Get("/slots", cfg.AppointmentsHandler.AvailableSlots)
				avail.Get("/dates", cfg.AppointmentsHandler.AvailableDates)
			})
			api.Route("/appointments", func(appts chi.Router) {
				appts.Post("/", cfg.AppointmentsHandler.Create)
				appts.Get("/{id}", cfg.AppointmentsHandler.Get)
			})
		}
	})

	// Admin routes, protected by an HMAC-signed JWT. Without a secret the
	// whole group stays unmounted.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AppointmentsHandler != nil {
				admin.Route("/appointments", func(appts chi.Router) {
					appts.Get("/", cfg.AppointmentsHandler.List)
					appts.Put("/{id}", cfg.AppointmentsHandler.Update)
					appts.Patch("/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
					appts.Delete("/{id}", cfg.AppointmentsHandler.Delete)
				})
			}
			if cfg.ConversationHandler != nil {
				admin.Get("/conversations", cfg.ConversationHandler.RecentConversations)
			}
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
