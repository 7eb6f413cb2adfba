package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/petpics/service/internal/response"
)

// Handler holds HTTP handlers for authentication endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// credentialsRequest is the request body for register and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// validate enforces the account constraints: username 3-20 characters,
// password at least 6.
func (req *credentialsRequest) validate() string {
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return "username must be 3-20 characters"
	}
	if len(req.Password) < 6 {
		return "password must be at least 6 characters"
	}
	return ""
}

// Register godoc
//
//	@Summary		Register a new account
//	@Description	Creates an account and returns a JWT for it.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		credentialsRequest	true	"Credentials"
//	@Success		201		{object}	response.Envelope{data=Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(w, msg)
		return
	}

	res, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Conflict(w, "this username is already taken")
			return
		}
		log.Printf("auth: register failed: %v", err)
		response.InternalError(w)
		return
	}

	response.Created(w, res)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verifies the credentials and returns a JWT.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		credentialsRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid username or password")
			return
		}
		log.Printf("auth: login failed: %v", err)
		response.InternalError(w)
		return
	}

	response.OK(w, res)
}
