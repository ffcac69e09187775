package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/pkg/apperror"
)

// Actor is the authenticated caller. The transport layer builds it from the
// access token and passes it explicitly to every operation.
type Actor struct {
	UserID uuid.UUID
	Role   enum.Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == enum.RoleAdmin
}

// CanAccess reports whether the actor may read or change a record owned by ownerID.
func (a *Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin() || (a != nil && a.UserID == ownerID)
}

func requireActor(a *Actor) error {
	if a == nil || a.UserID == uuid.Nil || !a.Role.IsValid() {
		return apperror.ErrUnauthorized
	}
	return nil
}

func requireAdmin(a *Actor) error {
	if err := requireActor(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return apperror.NewForbiddenError("Admin role required")
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and maps failures to field errors.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError(err.Error())
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fieldPath(fe.StructNamespace()),
			Message: fieldMessage(fe),
		})
	}
	return apperror.NewValidationError(fields)
}

// fieldPath drops the struct name: "CreateSaleInput.Items[0].Quantity" -> "Items[0].Quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must contain at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}

func fieldError(field, message string) error {
	return apperror.NewValidationError([]apperror.FieldError{{Field: field, Message: message}})
}
