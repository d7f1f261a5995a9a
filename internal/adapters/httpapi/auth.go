package httpapi

import (
	"net/http"

	httpinfra "horoscope-hub/internal/infra/http"
)

type otpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Auth.SendOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "OTP sent successfully", res)
}

func (a *API) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Auth.VerifyOTP(r.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	msg := "Login successful"
	if res.IsNewUser {
		msg = "Registration successful"
	}
	httpinfra.WriteOK(w, msg, res)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	pair, err := a.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Tokens refreshed successfully", map[string]any{"tokens": pair})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = httpinfra.DecodeJSON(r, &req)
	a.Auth.Logout(r.Context(), req.RefreshToken)
	httpinfra.WriteOK(w, "Logged out successfully", nil)
}

func (a *API) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := httpinfra.DecodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Auth.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpinfra.WriteOK(w, "Admin login successful", res)
}
