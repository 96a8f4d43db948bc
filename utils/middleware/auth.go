package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/auth"
	"github.com/sahilchouksey/admission-api/utils/response"
	"gorm.io/gorm"
)

var (
	errMissingToken   = errors.New("missing authorization token")
	errBadAuthFormat  = errors.New("invalid authorization format")
	errTokenExpired   = errors.New("token has expired")
	errTokenInvalid   = errors.New("invalid token")
	errUserNotFound   = errors.New("user not found")
	errTokenOutdated  = errors.New("token has been invalidated")
	errUserLoadFailed = errors.New("failed to load user")
)

// AuthMiddleware resolves bearer tokens to the user they were issued to
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

// authenticate validates the bearer token and loads the user. The token version
// must match the user's, so bumping it revokes every outstanding token.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, errMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, errBadAuthFormat
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, errTokenExpired
		}
		return nil, nil, errTokenInvalid
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, errTokenInvalid
	}

	var user model.User
	if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errUserNotFound
		}
		return nil, nil, errUserLoadFailed
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, errTokenOutdated
	}

	return claims, &user, nil
}

func setIdentity(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", user.ID)
	c.Locals("user_email", user.Email)
	c.Locals("claims", claims)
	c.Locals("user", user)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			if errors.Is(err, errUserLoadFailed) {
				return response.InternalServerError(c, err.Error())
			}
			return response.Unauthorized(c, err.Error())
		}

		setIdentity(c, claims, user)
		return c.Next()
	}
}

// Optional resolves the user when a valid token is present and otherwise
// continues anonymously
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, user, err := m.authenticate(c); err == nil {
			setIdentity(c, claims, user)
		}
		return c.Next()
	}
}

// RequireAdmin authenticates the request and checks the stored admin flag.
// The flag is read from the user row, not the token, so demotion takes effect at once.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			if errors.Is(err, errUserLoadFailed) {
				return response.InternalServerError(c, err.Error())
			}
			return response.Unauthorized(c, err.Error())
		}

		if !user.IsAdmin {
			return response.Forbidden(c, "Admin access required")
		}

		setIdentity(c, claims, user)
		c.Locals("admin_user", user)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}
