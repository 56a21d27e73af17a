package auth

import (
	"github.com/rs/zerolog"
)

// Service authenticates the configured operator account and issues tokens.
// There is exactly one account; multi-user management is out of scope.
type Service struct {
	username     string
	passwordHash string
	jwtManager   *JWTManager
	log          zerolog.Logger
}

// NewService creates an auth service for the configured operator
func NewService(username, passwordHash string, jwtManager *JWTManager, log zerolog.Logger) *Service {
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		jwtManager:   jwtManager,
		log:          log.With().Str("component", "auth").Logger(),
	}
}

// Login verifies credentials and returns a signed access token
func (s *Service) Login(username, password string) (*TokenResponse, error) {
	if username != s.username || !VerifyPassword(s.passwordHash, password) {
		s.log.Warn().Str("username", username).Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateAccessToken(UserClaims{Username: username})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", username).Msg("operator logged in")
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtManager.GetAccessTokenDuration(),
	}, nil
}

// Validate checks an access token and returns its claims
func (s *Service) Validate(tokenString string) (*UserClaims, error) {
	return s.jwtManager.ValidateAccessToken(tokenString)
}
