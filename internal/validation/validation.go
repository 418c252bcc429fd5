// Package validation runs declarative per-field rule chains before a
// handler sees the request. Rules on a field run in order; the first
// failure is recorded for that field and the remaining rules for it are
// skipped. When any field fails the chain aborts with 422 and a
// per-field error payload. A rule may instead return an
// apperror.ErrorWithStatus to abort with that status and a plain
// {message} body, which is how token checks surface 401.
package validation

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"chirpnet/api/internal/apperror"
	"chirpnet/api/internal/messages"
)

// Rule checks a single trimmed string value. body holds every field of
// the request for cross-field rules, c lets lookup rules attach decoded
// state for handlers.
type Rule func(ctx context.Context, c *gin.Context, value string, body map[string]any) error

type Field struct {
	Name     string
	Optional bool
	Rules    []Rule
}

func NewField(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

func OptionalField(name string, rules ...Rule) Field {
	return Field{Name: name, Optional: true, Rules: rules}
}

type fieldError struct {
	Msg string `json:"msg"`
}

// Body returns middleware validating JSON body fields. The body is bound
// with ShouldBindBodyWith so handlers can bind it again afterwards.
func Body(fields ...Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
				return
			}
		}

		errs := map[string]fieldError{}
		for _, field := range fields {
			value, present := stringField(body, field.Name)
			if !present && field.Optional {
				continue
			}

			for _, rule := range field.Rules {
				err := rule(c.Request.Context(), c, value, body)
				if err == nil {
					continue
				}
				var se *apperror.ErrorWithStatus
				if errors.As(err, &se) {
					c.AbortWithStatusJSON(se.Status, gin.H{"message": se.Message})
					return
				}
				errs[field.Name] = fieldError{Msg: err.Error()}
				break
			}
		}

		if len(errs) > 0 {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"message": messages.ValidationError,
				"errors":  errs,
			})
			return
		}

		c.Next()
	}
}

func stringField(body map[string]any, name string) (string, bool) {
	raw, ok := body[name]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", true
	}
	return strings.TrimSpace(s), true
}

func Required(msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		if value == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func IsEmail(msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return errors.New(msg)
		}
		return nil
	}
}

func LengthBetween(min, max int, msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		if len(value) < min || len(value) > max {
			return errors.New(msg)
		}
		return nil
	}
}

// StrongPassword requires 6-50 characters with at least one lowercase,
// one uppercase, one digit and one symbol.
func StrongPassword(msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		if len(value) < 6 || len(value) > 50 {
			return errors.New(msg)
		}
		var lower, upper, digit, symbol bool
		for _, r := range value {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			default:
				symbol = true
			}
		}
		if !lower || !upper || !digit || !symbol {
			return errors.New(msg)
		}
		return nil
	}
}

// MatchesField fails unless the value equals another body field.
func MatchesField(other string, msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, body map[string]any) error {
		otherValue, _ := stringField(body, other)
		if value != otherValue {
			return errors.New(msg)
		}
		return nil
	}
}

func ISO8601Date(msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		if _, err := time.Parse("2006-01-02", value); err != nil {
			if _, err := time.Parse(time.RFC3339, value); err != nil {
				return errors.New(msg)
			}
		}
		return nil
	}
}

var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]{4,15}$`)

func Username(msg string) Rule {
	return func(_ context.Context, _ *gin.Context, value string, _ map[string]any) error {
		if !usernameRegexp.MatchString(value) {
			return errors.New(msg)
		}
		return nil
	}
}

// Custom wraps an arbitrary check, typically an async store lookup.
func Custom(fn func(ctx context.Context, c *gin.Context, value string, body map[string]any) error) Rule {
	return Rule(fn)
}
