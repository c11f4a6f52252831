package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type CookieOptions struct {
	Domain     string
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	redirectURL string
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, redirectURL string, cookies CookieOptions) *AuthHandler {
	if cookies.AccessTTL <= 0 {
		cookies.AccessTTL = 15 * time.Minute
	}
	if cookies.RefreshTTL <= 0 {
		cookies.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{
		authService: authService,
		redirectURL: redirectURL,
		cookies:     cookies,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login godoc
// @Summary      Logs a user in with email and password
// @Description  Sets the access and refresh token cookies. The tokens are also returned for clients without a cookie jar.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      loginRequest  true  "Credentials"
// @Success      200          {object}  tokenResponse
// @Failure      401          {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	accessToken, refreshToken, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)
	h.setRefreshTokenCookie(w, refreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "validation_error", "failed to parse form")
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		writeErrorCode(w, http.StatusBadRequest, "validation_error", "missing credential")
		return
	}

	accessToken, refreshToken, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)
	h.setRefreshTokenCookie(w, refreshToken)

	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh godoc
// @Summary      Refreshes the access token
// @Description  Reads the refresh token from its cookie or, for clients without a cookie jar, from the JSON body. Sets new token cookies and returns the tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body      refreshRequest  false  "Refresh token"
// @Success      200    {object}  tokenResponse
// @Failure      401    {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		presented = cookie.Value
	} else if r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		presented = req.RefreshToken
	}
	if presented == "" {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing refresh token")
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshAccessToken(r.Context(), presented)
	if err != nil {
		h.expireCookies(w)
		writeAuthError(w, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)

	if refreshToken == "" {
		refreshToken = presented
	} else if refreshToken != presented {
		h.setRefreshTokenCookie(w, refreshToken)
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

// Logout godoc
// @Summary      Logs the authenticated user out
// @Description  Revokes the refresh token and clears both cookies
// @Tags         auth
// @Accept       json
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err == nil && cookie.Value != "" {
		_ = h.authService.Logout(r.Context(), cookie.Value)
	}

	h.expireCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication failed")
		return
	}
	writeError(w, err)
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(h.cookies.AccessTTL.Seconds()),
	})
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(h.cookies.RefreshTTL.Seconds()),
	})
}

func (h *AuthHandler) expireCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
	http.SetCookie(w, &http.Cookie{Name: "refresh_token", MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
}
