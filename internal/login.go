package internal

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"triveni-inventory-api/internal/auth"
	"triveni-inventory-api/internal/models"
)

// loginUser checks the submitted credentials against the access gate and
// issues a session token. Bad credentials always get the same answer.
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	if err := s.Gate.Verify(in.Username, in.Password); err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			s.Logger.Warn("login rejected", zap.String("username", in.Username))
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	token, err := s.JWTManager.GenerateToken(in.Username, []string{"admin"})
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	s.Logger.Info("login succeeded", zap.String("username", in.Username))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.LoginResponse{Token: token, Username: in.Username})
}
