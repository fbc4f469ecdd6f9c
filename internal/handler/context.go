package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// currentUserID reads the authenticated account id placed in the gin context
// by the auth middleware. The second return is false for anonymous requests.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// bindingErrors turns gin binding failures into the field-keyed errors map of
// the response envelope.
func bindingErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			name := toSnakeCase(fe.Field())
			switch fe.Tag() {
			case "required":
				fields[name] = "This field is required."
			case "email":
				fields[name] = "Enter a valid email address."
			case "max":
				fields[name] = "Value is too long."
			case "min":
				fields[name] = "Value is too short."
			default:
				fields[name] = "This value is invalid."
			}
		}
		return fields
	}
	return map[string]string{"detail": err.Error()}
}

// toSnakeCase converts the struct field name reported by the validator to
// the JSON-style key clients sent.
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
