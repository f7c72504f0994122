package identityd

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// Service wires the user repository and token manager behind the three
// endpoints the client consumes.
type Service struct {
	repo   UserRepo
	tokens *TokenManager
	log    *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo UserRepo, tokens *TokenManager, log *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("identityd: user repository is required")
	}
	if tokens == nil {
		return nil, errors.New("identityd: token manager is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, log: log, clock: time.Now}, nil
}

// RegisterRoutes attaches the service's endpoints. Keep this free of
// business logic; handlers delegate to the repo and token manager.
func (s *Service) RegisterRoutes(r *gin.Engine) {
	users := r.Group("/users")
	{
		users.POST("/register", s.handleRegister)
		users.POST("/login", s.handleLogin)
		users.GET("/me", s.handleMe)
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "valid email is required"})
		return
	}
	if len(req.Password) < 4 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.log.Error("password hash failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         DefaultRole,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		}
		s.log.Error("user create failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": u.Email, "role": u.Role})
}

func (s *Service) handleLogin(c *gin.Context) {
	// The login endpoint is form-encoded and uses "username" for the email,
	// mirroring the OAuth2 password-flow shape the web client expects.
	email := strings.TrimSpace(strings.ToLower(c.PostForm("username")))
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	u, err := s.repo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.log.Error("user lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !verifyPassword(u.PasswordHash, password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(s.clock(), u)
	if err != nil {
		s.log.Error("token issue failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user_id":      u.ID,
		"role":         u.Role,
	})
}

func (s *Service) handleMe(c *gin.Context) {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	tok := strings.TrimPrefix(raw, bearerPrefix)

	claims, err := s.tokens.Verify(tok, s.clock())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// The repo remains authoritative: a deleted account invalidates an
	// otherwise valid token immediately.
	u, err := s.repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		s.log.Error("user lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email, "role": u.Role})
}
