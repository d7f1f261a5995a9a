package httpapi

import (
	"net/http"

	httpinfra "horoscope-hub/internal/infra/http"
	"horoscope-hub/internal/usecase/profile"
)

func principalID(r *http.Request) string {
	p, _ := httpinfra.PrincipalFrom(r.Context())
	return p.UserID
}

func (a *API) daily(w http.ResponseWriter, r *http.Request) {
	h, err := a.Profile.Daily(r.Context(), principalID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", map[string]any{"horoscope": h})
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.Profile.Get(r.Context(), principalID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "", map[string]any{"user": user})
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in profile.ProfileInput
	if err := httpinfra.DecodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.Profile.UpdateProfile(r.Context(), principalID(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Profile updated successfully", map[string]any{"user": user})
}

func (a *API) updateBirthChart(w http.ResponseWriter, r *http.Request) {
	var in profile.BirthChartInput
	if err := httpinfra.DecodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profile.UpdateBirthChart(r.Context(), principalID(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Birth chart information updated successfully", res)
}
