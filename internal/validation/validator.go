package validation

import (
	"regexp"
	"strings"

	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/slug"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// MaxTitleLength keeps derived directory names well under filesystem limits
const MaxTitleLength = 200

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidatePost checks the fields a create or update request must carry.
// The post store does not repeat these checks.
func ValidatePost(input *models.PostInput) []ValidationError {
	var errors []ValidationError

	// Validate title
	if strings.TrimSpace(input.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else if len(input.Title) > MaxTitleLength {
		errors = append(errors, ValidationError{Field: "title", Message: "title is too long"})
	} else if slug.Derive(input.Title) == "" {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: "title must contain at least one letter, digit, hyphen or underscore",
			Value:   input.Title,
		})
	}

	// Validate content
	if input.Content == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	// Validate attribution
	if input.Author == "" {
		errors = append(errors, ValidationError{Field: "author", Message: "author is required"})
	}
	if input.Email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	}

	return errors
}

// ValidateEmail validates a subscriber email address
func ValidateEmail(email string) []ValidationError {
	var errors []ValidationError

	if email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	} else if !emailRegex.MatchString(email) {
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format", Value: email})
	}

	return errors
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Summary joins the messages of errs into one line
func Summary(errs []ValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
