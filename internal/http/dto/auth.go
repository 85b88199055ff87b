package dto

import (
	"linkregistry/internal/domain/models"
	"linkregistry/internal/services/auth"
)

// Request
type (
	RegisterRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

// Response
type (
	MessageResponse struct {
		Message string `json:"message"`
	}

	LoginResponse struct {
		AccessToken string      `json:"access_token"`
		TokenType   string      `json:"token_type"`
		Role        models.Role `json:"role"`
		ExpiresAt   int64       `json:"expires_at"`
	}
)

func (r RegisterRequest) ToDomain() auth.RegisterInput {
	return auth.RegisterInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

func LoginResponseFromDomain(res auth.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		Role:        res.Role,
		ExpiresAt:   res.ExpiresAt.Unix(),
	}
}
