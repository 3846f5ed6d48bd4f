package api

import (
	"errors"
	"net/http"
	"strconv"

	"SessionScope/internal/auth"
	"SessionScope/internal/user"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, user.ErrBadPassword) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("login lookup failed")
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		auth.WriteDetail(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := s.tokens.GenerateToken(u.Username, u.Role)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("token generation failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.IdentityFrom(r.Context())
	if !ok {
		auth.WriteDetail(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user list failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		auth.WriteDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := s.users.Create(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if errors.Is(err, user.ErrExists) {
		auth.WriteDetail(w, http.StatusBadRequest, "username already exists")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user create failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Non-admin callers may only read their own record.
	caller, _ := auth.IdentityFrom(r.Context())
	if caller == nil || (caller.Role != "admin" && caller.ID != id) {
		auth.WriteDetail(w, http.StatusForbidden, "not allowed to access this user")
		return
	}

	u, err := s.users.GetByID(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		auth.WriteDetail(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user lookup failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Update(r.Context(), id, req.Email, req.Role)
	if errors.Is(err, user.ErrNotFound) {
		auth.WriteDetail(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user update failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, "invalid user id")
		return
	}

	err = s.users.Delete(r.Context(), id)
	switch {
	case errors.Is(err, user.ErrNotFound):
		auth.WriteDetail(w, http.StatusNotFound, "user not found")
	case errors.Is(err, user.ErrProtected):
		auth.WriteDetail(w, http.StatusBadRequest, "cannot delete admin user")
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user delete failed")
		auth.WriteDetail(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
	}
}
