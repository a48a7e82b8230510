package handler

import (
	"crypto/subtle"
	"net/http"

	"detectview/internal/config"
	"detectview/internal/logger"
	"detectview/internal/middleware"
)

// LoginHandler handles POST /auth/login by validating password and issuing a login token cookie.
func LoginHandler(config *config.Config, logger *logger.Logger, logins *middleware.LoginStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(config.Password)) != 1 {
			logger.Warning("Failed login from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    logins.Issue(),
			Path:     "/",
			MaxAge:   int(logins.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler revokes the login token, clears the cookie and redirects to the login page.
func LogoutHandler(logins *middleware.LoginStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(middleware.AuthCookie); err == nil {
			logins.Revoke(cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:   middleware.AuthCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
