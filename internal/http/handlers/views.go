package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/missionlog/domain"
)

// identityView is the public form of an identity; the password hash never leaves the service
func identityView(i *domain.Identity) gin.H {
	return gin.H{
		"id":        i.ID,
		"email":     i.Email,
		"name":      i.DisplayName,
		"role":      i.Role,
		"createdAt": i.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": i.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
