package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"formstack/internal/cache"
	"formstack/internal/middleware"
	"formstack/internal/models"
	"formstack/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer      = "formstack-api"
	tokenAudience    = "formstack-client"
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// accessCookieName carries the access token for the page surface.
	accessCookieName = "access_token"
)

// tokenClaims is the validated subset of a JWT we act on.
type tokenClaims struct {
	UserID    uint
	Type      string
	Version   uint
	ID        string
	ExpiresAt time.Time
}

type tokenPair struct {
	Access        string
	Refresh       string
	AccessExpires time.Time
}

func (s *Server) accessTTL() time.Duration {
	return time.Duration(s.config.JWTAccessTTLMinutes) * time.Minute
}

func (s *Server) refreshTTL() time.Duration {
	return time.Duration(s.config.JWTRefreshTTLHours) * time.Hour
}

// issueTokenPair signs an access and a refresh token bound to the user's
// current credential version.
func (s *Server) issueTokenPair(user *models.User) (*tokenPair, error) {
	access, expires, err := s.signToken(user.ID, user.CredentialVersion, tokenTypeAccess, s.accessTTL())
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.signToken(user.ID, user.CredentialVersion, tokenTypeRefresh, s.refreshTTL())
	if err != nil {
		return nil, err
	}
	return &tokenPair{Access: access, Refresh: refresh, AccessExpires: expires}, nil
}

func (s *Server) signToken(userID, version uint, typ string, ttl time.Duration) (string, time.Time, error) {
	if s.config.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	expires := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"typ": typ,
		"ver": version,
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": expires.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// parseToken verifies signature, issuer, audience and expiry and extracts our claims.
func (s *Server) parseToken(tokenString string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}

	typ, _ := claims["typ"].(string)
	ver, ok := claims["ver"].(float64)
	if !ok || ver < 1 {
		return nil, errors.New("invalid version claim")
	}
	jti, _ := claims["jti"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("invalid expiration claim")
	}

	return &tokenClaims{
		UserID:    uint(userID),
		Type:      typ,
		Version:   uint(ver),
		ID:        jti,
		ExpiresAt: exp.Time,
	}, nil
}

// validateClaims applies the checks that need state: revocation and the
// user's current credential version.
func (s *Server) validateClaims(ctx context.Context, claims *tokenClaims, wantType string) error {
	if claims.Type != wantType {
		return models.NewUnauthorizedError("Invalid token type")
	}

	// Revocation fails open when Redis is unavailable.
	revoked, err := cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "revocation check failed", "error", err.Error())
	}
	if revoked {
		observability.AuthEvents.WithLabelValues("revoked").Inc()
		return models.NewUnauthorizedError("Token has been revoked")
	}

	version, err := s.userService.CredentialVersion(ctx, claims.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			return models.NewUnauthorizedError("User not found")
		}
		return err
	}
	if version != claims.Version {
		return models.NewUnauthorizedError("Token is no longer valid")
	}
	return nil
}

// bearerToken returns the token from the Authorization header or, failing that,
// the access cookie.
func bearerToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(accessCookieName)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if err := s.validateClaims(c.UserContext(), claims, tokenTypeAccess); err != nil {
			return models.RespondWithAppError(c, err)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// setAccessCookie stores the access token for the page surface.
func (s *Server) setAccessCookie(c *fiber.Ctx, pair *tokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    pair.Access,
		Path:     "/",
		Expires:  pair.AccessExpires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearAccessCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// currentUserID returns the principal stored by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}
