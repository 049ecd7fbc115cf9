package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"puc-service/internal/domain/puc"
)

const operatorKey = "operator"

// AuthMiddleware validates a bearer token and attaches the operator identity
// to the request. Operations receive the operator as explicit context; role
// enforcement itself lives with the external store and session layer.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing bearer token"))
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid token"))
			return
		}

		op := puc.Operator{}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, _ := claims.GetSubject(); sub != "" {
				op.ID = sub
			}
			if role, ok := claims["role"].(string); ok {
				op.Role = role
			}
		}
		c.Set(operatorKey, op)
		c.Next()
	}
}

// OperatorFrom returns the authenticated operator, or the anonymous operator
// on public routes.
func OperatorFrom(c *gin.Context) puc.Operator {
	if v, ok := c.Get(operatorKey); ok {
		if op, ok := v.(puc.Operator); ok {
			return op
		}
	}
	return puc.Operator{}
}
