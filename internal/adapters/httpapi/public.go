package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	httpinfra "horoscope-hub/internal/infra/http"
	"horoscope-hub/internal/usecase/horoscope"
)

func (a *API) bySign(w http.ResponseWriter, r *http.Request) {
	sign := chi.URLParam(r, "sign")
	date := r.URL.Query().Get("date")
	if horoscope.IsAll(sign) {
		a.writeAll(w, r, date)
		return
	}
	h, err := a.Resolver.ResolvePublic(r.Context(), sign, date)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", map[string]any{"horoscope": h})
}

func (a *API) allSigns(w http.ResponseWriter, r *http.Request) {
	a.writeAll(w, r, r.URL.Query().Get("date"))
}

func (a *API) writeAll(w http.ResponseWriter, r *http.Request, date string) {
	res, err := a.Resolver.ResolveAll(r.Context(), date)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", res)
}
