package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/annel0/voxel-sandbox/internal/middleware"
	"github.com/gin-gonic/gin"
)

var (
	errNoToken     = errors.New("отсутствует токен авторизации")
	errTokenFormat = errors.New("неверный формат токена")
)

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errTokenFormat
	}
	return strings.TrimSpace(token), nil
}

// deny прерывает запрос ответом с ошибкой и trace-ID
func deny(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{
		Success: false,
		Message: message,
		TraceID: middleware.TraceID(c),
	})
}

// tokenMiddleware пускает к изменению мира только администраторов.
// Без настроенного издателя токенов пропускает все запросы.
func (rs *RestServer) tokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.tokens == nil {
			c.Next()
			return
		}

		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			deny(c, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := rs.tokens.Validate(token)
		if err != nil {
			rs.logger.Debug("Отклонён токен: %v", err)
			deny(c, http.StatusUnauthorized, "недействительный токен")
			return
		}
		if !claims.IsAdmin {
			rs.logger.Warn("Попытка изменить мир без прав администратора: subject=%s", claims.Subject)
			deny(c, http.StatusForbidden, "требуются права администратора")
			return
		}

		c.Set(middleware.SubjectKey, claims.Subject)
		c.Next()
	}
}
