package httpapi

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
	httpinfra "horoscope-hub/internal/infra/http"
	"horoscope-hub/internal/usecase/auth"
	"horoscope-hub/internal/usecase/dashboard"
	"horoscope-hub/internal/usecase/horoscope"
	"horoscope-hub/internal/usecase/profile"
)

// Deps: зависимости HTTP API.
type Deps struct {
	Resolver     *horoscope.Resolver
	Admin        *horoscope.Admin
	Auth         *auth.Service
	Tokens       *auth.Tokens
	Profile      *profile.Service
	Dashboard    *dashboard.Service
	KV           domain.KV
	RateLimitRPM int
	Version      string
	Log          zerolog.Logger
}

// API держит обработчики маршрутов.
type API struct {
	Deps
	started time.Time
}

// Mount регистрирует маршруты сервиса.
func Mount(r chi.Router, d Deps) *API {
	if d.Version == "" {
		d.Version = "v1"
	}
	a := &API{Deps: d, started: time.Now()}

	r.Get("/", a.banner)
	r.Get("/health", a.health)

	authn := httpinfra.BearerAuth(a.authenticate)

	r.Route("/api/"+d.Version, func(r chi.Router) {
		r.Use(httpinfra.RateLimit(d.KV, d.RateLimitRPM, d.Log))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/send-otp", a.sendOTP)
			r.Post("/verify-otp", a.verifyOTP)
			r.Post("/refresh", a.refresh)
			r.Post("/refresh-token", a.refresh)
			r.Post("/logout", a.logout)
		})

		r.Route("/horoscope", func(r chi.Router) {
			r.With(authn).Get("/daily", a.daily)
			r.Get("/all", a.allSigns)
			r.Get("/{sign}", a.bySign)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", a.getProfile)
			r.Put("/profile", a.updateProfile)
			r.Put("/birth-chart", a.updateBirthChart)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", a.adminLogin)
			r.Group(func(r chi.Router) {
				r.Use(authn, httpinfra.AdminOnly)
				r.Get("/dashboard/stats", a.dashboardStats)
				r.Get("/users", a.listUsers)
				r.Get("/users/{userId}", a.getUser)
				r.Post("/horoscopes", a.upsertHoroscope)
				r.Get("/horoscopes", a.listHoroscopes)
				r.Patch("/horoscopes/{id}/publish", a.publishHoroscope)
				r.Delete("/horoscopes/{id}", a.deleteHoroscope)
				r.Post("/cache/clear", a.clearCache)
			})
		})
	})
	return a
}

func (a *API) authenticate(token string) (httpinfra.Principal, error) {
	claims, err := a.Tokens.ParseAccess(token)
	if err != nil {
		return httpinfra.Principal{}, err
	}
	return httpinfra.Principal{UserID: claims.UserID, Phone: claims.PhoneNumber, IsAdmin: claims.IsAdmin}, nil
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpinfra.WriteError(w, r, a.Log, err)
}

func (a *API) banner(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Horoscope Hub API",
		"version":   a.Version,
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(a.started).Seconds(),
	})
}
