package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/araneta/postoko-sub002/config"
	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/services"
	"github.com/araneta/postoko-sub002/storage"
)

// Claims represents the JWT claims
type Claims struct {
	UserID      string `json:"user_id"`
	StoreInfoID string `json:"store_info_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT generates a signed token for a user
func generateJWT(user *models.User) (string, error) {
	claims := &Claims{
		UserID:      user.ID.String(),
		StoreInfoID: user.StoreInfoID.String(),
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * 24 * time.Hour)), // 15 days
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// storeIDFromContext reads the caller's store id set by AuthMiddleware.
func storeIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("store_info_id")
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service and storage errors onto the HTTP error
// taxonomy: rule violations and bad input are 400, missing rows 404,
// anything else 500.
func respondError(c *gin.Context, err error) {
	var ruleErr *services.RuleError
	switch {
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": ruleErr.Message, "reason": ruleErr.Reason})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrDuplicateEarn):
		c.JSON(http.StatusConflict, gin.H{"error": "points already credited for this order"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
