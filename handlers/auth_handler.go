package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/hackathon-registration/middleware"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	now         func() time.Time
}

func NewAuthHandler(authService services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		now:         time.Now,
	}
}

// Login godoc
// @Summary Iniciar sesión como organizador
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.LoginInput true "Credenciales"
// @Success 200 {object} map[string]interface{} "Token JWT"
// @Failure 400 {object} map[string]string "Faltan datos"
// @Failure 401 {object} map[string]string "Credenciales inválidas"
// @Failure 404 {object} map[string]string "Acceso de organizadores deshabilitado"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	organizer, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	now := h.now()
	expiresAt := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		middleware.JWTClaimSubject: organizer.Email,
		middleware.JWTClaimRole:    string(organizer.Role),
		"exp":                      expiresAt.Unix(),
		"iat":                      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	response := jsonResponse{
		"token":      tokenString,
		"expires_at": expiresAt.UTC(),
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
