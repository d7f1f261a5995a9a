package httpapi

import (
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"horoscope-hub/internal/domain"
	httpinfra "horoscope-hub/internal/infra/http"
	"horoscope-hub/internal/usecase/horoscope"
)

type publishRequest struct {
	Published *bool `json:"published"`
}

type clearCacheRequest struct {
	Date    string `json:"date"`
	SunSign string `json:"sunSign"`
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "Invalid horoscope id")
	}
	return id, nil
}

func (a *API) dashboardStats(w http.ResponseWriter, r *http.Request) {
	out, err := a.Dashboard.Overview(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", out)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	q := domain.UserQuery{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
	if raw := r.URL.Query().Get("isVerified"); raw != "" {
		v := raw == "true"
		q.Verified = &v
	}
	users, page, err := a.Dashboard.Users(r.Context(), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", map[string]any{"users": users, "pagination": page})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	d, err := a.Dashboard.User(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", d)
}

func (a *API) upsertHoroscope(w http.ResponseWriter, r *http.Request) {
	var in horoscope.UpsertInput
	if err := httpinfra.DecodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	h, err := a.Admin.Upsert(r.Context(), principalID(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Horoscope created/updated successfully", map[string]any{"horoscope": h})
}

func (a *API) listHoroscopes(w http.ResponseWriter, r *http.Request) {
	q := domain.HoroscopeQuery{
		Date:  r.URL.Query().Get("date"),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
	if raw := r.URL.Query().Get("sunSign"); raw != "" {
		sign, err := domain.ParseSign(raw)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		q.Sign = sign
	}
	page, err := a.Resolver.ResolveAdmin(r.Context(), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", page)
}

func (a *API) publishHoroscope(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req publishRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Published == nil {
		a.fail(w, r, domain.NewValidationError("published", "published is required"))
		return
	}
	h, err := a.Admin.SetPublished(r.Context(), id, *req.Published)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	msg := "Horoscope unpublished successfully"
	if h.Published {
		msg = "Horoscope published successfully"
	}
	httpinfra.WriteOK(w, msg, map[string]any{"horoscope": h})
}

func (a *API) deleteHoroscope(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Admin.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Horoscope deleted successfully", nil)
}

func (a *API) clearCache(w http.ResponseWriter, r *http.Request) {
	var req clearCacheRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	scope, err := a.Admin.ClearCache(r.Context(), req.Date, req.SunSign)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, scope.Message, scope)
}
