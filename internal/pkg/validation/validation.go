package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_.~-]+$`)

// ReferenceTypes are the accepted citation kinds.
var ReferenceTypes = []string{"Website", "Book", "Journal", "Article", "Research Paper", "Video", "Podcast", "Interview", "Other"}

// SocialPlatforms are the accepted author profile platforms.
var SocialPlatforms = []string{"Twitter", "Facebook", "Instagram", "LinkedIn", "YouTube", "GitHub", "Website", "Medium", "TikTok", "Other"}

var registerOnce sync.Once

// Register installs the custom rules on gin's binding validator and makes
// error paths use JSON field names. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = v.RegisterValidation("reference_type", func(fl validator.FieldLevel) bool {
			return slices.Contains(ReferenceTypes, fl.Field().String())
		})
		_ = v.RegisterValidation("social_platform", func(fl validator.FieldLevel) bool {
			return slices.Contains(SocialPlatforms, fl.Field().String())
		})
	})
}

// IsSlug reports whether s is a non-empty URL-safe slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Issue is one failed rule, in the shape API error details use.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Name    string   `json:"name"`
}

// Details converts a binding error into `{errors: [...]}`. Errors that are not
// rule failures (malformed JSON) yield nil.
func Details(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{Path: path(fe.Namespace()), Message: message(fe), Name: "ValidationError"})
	}
	return map[string]any{"errors": issues}
}

// Message summarises a binding error in one line.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	if len(verrs) == 1 {
		return message(verrs[0])
	}
	return fmt.Sprintf("%s (and %d more errors)", message(verrs[0]), len(verrs)-1)
}

// path drops the root struct and the `data` wrapper from a namespace such as
// "articleBody.data.sections[1].title" and splits out slice indexes.
func path(namespace string) []string {
	segments := strings.Split(namespace, ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}
	if len(segments) > 0 && segments[0] == "data" {
		segments = segments[1:]
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		name, index, ok := strings.Cut(seg, "[")
		parts = append(parts, name)
		if ok {
			parts = append(parts, strings.TrimSuffix(index, "]"))
		}
	}
	return parts
}

func message(fe validator.FieldError) string {
	field := strings.Join(path(fe.Namespace()), ".")
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be defined", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "slug":
		return fmt.Sprintf("%s must only contain letters, digits and -_.~", field)
	case "reference_type":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(ReferenceTypes, ", "))
	case "social_platform":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(SocialPlatforms, ", "))
	}
	return fmt.Sprintf("%s is invalid", field)
}
