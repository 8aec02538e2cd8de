package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/services"
)

// respondError отображает ошибку сервиса в HTTP-ответ. Неожиданные ошибки
// логируются, клиент получает только общий 500.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	switch svcErr.Kind {
	case services.KindValidation:
		respondValidation(c, svcErr.Fields)
	case services.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"message": svcErr.Message})
	case services.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": svcErr.Message})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": svcErr.Message})
	case services.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"message": svcErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}
}

// parseID читает uuid из пути. Кривой id не может существовать, поэтому 404.
func parseID(c *gin.Context, name, notFoundMsg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
		return uuid.Nil, false
	}
	return id, true
}
