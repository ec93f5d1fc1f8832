package handlers

import (
	"context"

	"github.com/serroba/shortlink/internal/auth"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register creates an account.
func (h *AuthHandler) Register(ctx context.Context, req *CredentialsRequest) (*TextResponse, error) {
	if _, err := h.service.Register(ctx, req.Body.Username, req.Body.Password); err != nil {
		return nil, httpError(err)
	}

	return text("User registered successfully"), nil
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(ctx context.Context, req *CredentialsRequest) (*LoginResponse, error) {
	token, err := h.service.Login(ctx, req.Body.Username, req.Body.Password)
	if err != nil {
		return nil, httpError(err)
	}

	resp := &LoginResponse{}
	resp.Body.Token = token

	return resp, nil
}
