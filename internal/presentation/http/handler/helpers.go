package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kopi-pos/internal/presentation/http/middleware"
	"github.com/sangkips/kopi-pos/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userID, ok := c.Value(middleware.ContextUserID).(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserRole extracts the user role from the Gin context
func GetUserRole(c *gin.Context) enum.Role {
	role, _ := c.Value(middleware.ContextUserRole).(enum.Role)
	return role
}

// actorFrom builds the caller for service calls and writes a 401 when the
// request carries no authenticated user.
func actorFrom(c *gin.Context) (*service.Actor, bool) {
	userID := GetUserID(c)
	role := GetUserRole(c)
	if userID == nil || !role.IsValid() {
		response.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	return &service.Actor{UserID: *userID, Role: role}, true
}

// pathID parses a uuid path parameter and writes a 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	params := pagination.DefaultPagination()
	if err := c.ShouldBindQuery(params); err != nil {
		return pagination.DefaultPagination()
	}
	params.Validate()
	return params
}
