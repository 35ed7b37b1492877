package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mentorbase/platform/internal/availability"
	"github.com/mentorbase/platform/internal/bookings"
	"github.com/mentorbase/platform/internal/calendars"
	httpmiddleware "github.com/mentorbase/platform/internal/http/middleware"
	"github.com/mentorbase/platform/pkg/logging"
)

// Config holds the handlers and settings the router wires together.
type Config struct {
	Logger              *logging.Logger
	CalendarsHandler    *calendars.Handler
	AvailabilityHandler *availability.Handler
	BookingsHandler     *bookings.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
	BookingRateLimit    float64
	BookingRateBurst    int
}

// New builds the chi router: public calendar browsing and booking, plus the
// JWT-protected admin surface.
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

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/public/calendars/{slug}", func(pub chi.Router) {
		if cfg.AvailabilityHandler != nil {
			pub.Get("/", cfg.AvailabilityHandler.GetCalendar)
			pub.Get("/availability", cfg.AvailabilityHandler.GetMonth)
			pub.Get("/slots", cfg.AvailabilityHandler.GetSlots)
		}
		if cfg.BookingsHandler != nil {
			book := pub
			if cfg.BookingRateLimit > 0 {
				book = pub.With(httpmiddleware.RateLimit(cfg.BookingRateLimit, cfg.BookingRateBurst))
			}
			book.Post("/bookings", cfg.BookingsHandler.Create)
		}
	})

	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			if cfg.CalendarsHandler != nil {
				admin.Route("/calendars", func(cal chi.Router) {
					cal.Post("/", cfg.CalendarsHandler.CreateCalendar)
					cal.Get("/", cfg.CalendarsHandler.ListCalendars)
					cal.Route("/{calendarID}", func(one chi.Router) {
						one.Get("/", cfg.CalendarsHandler.GetCalendar)
						one.Patch("/", cfg.CalendarsHandler.UpdateCalendar)
						one.Delete("/", cfg.CalendarsHandler.DeleteCalendar)
						one.Post("/slot-rules", cfg.CalendarsHandler.CreateSlotRule)
						one.Get("/slot-rules", cfg.CalendarsHandler.ListSlotRules)
						one.Patch("/slot-rules/{ruleID}", cfg.CalendarsHandler.UpdateSlotRule)
						one.Delete("/slot-rules/{ruleID}", cfg.CalendarsHandler.DeleteSlotRule)
						if cfg.BookingsHandler != nil {
							one.Get("/bookings", cfg.BookingsHandler.ListForCalendar)
						}
					})
				})
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
