// Package validation owns the shared validator used for manifests, host
// configuration and installer input.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	deskerrors "github.com/alexisbeaulieu97/deskmate/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern   = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	pluginIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	sshGitPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9._/~-]+$`)
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("plugin_id", func(fl validator.FieldLevel) bool {
			id := fl.Field().String()
			return len(id) <= 64 && pluginIDPattern.MatchString(id) && !strings.Contains(id, "..")
		})

		_ = v.RegisterValidation("git_url", func(fl validator.FieldLevel) bool {
			return IsGitURL(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// IsGitURL accepts http(s) URLs with a host, scp-style SSH remotes and
// explicit local paths.
func IsGitURL(raw string) bool {
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, "\x00") {
		return false
	}

	if parsed, err := url.Parse(raw); err == nil {
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https", "ssh", "git":
			return parsed.Host != ""
		case "file":
			return parsed.Path != ""
		}
	}

	if sshGitPattern.MatchString(raw) {
		return true
	}

	if strings.HasPrefix(raw, "/") {
		return !strings.Contains(raw, "/../") && !strings.HasSuffix(raw, "/..")
	}
	return strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../")
}

// Struct validates v and converts the first failure into a ValidationError.
// file names the document being validated and may be empty.
func Struct(file string, v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return deskerrors.NewFieldError(file, "", err.Error(), err)
	}

	first := fieldErrs[0]
	field := first.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	return deskerrors.NewFieldError(file, field, describe(first), err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "semver":
		return fmt.Sprintf("%q is not a semantic version (expected MAJOR.MINOR.PATCH)", fe.Value())
	case "plugin_id":
		return fmt.Sprintf("%q is not a valid plugin ID (letters, digits, '.', '_', '-')", fe.Value())
	case "git_url":
		return fmt.Sprintf("%q is not a git URL", fe.Value())
	case "oneof":
		return fmt.Sprintf("%v must be one of [%s]", fe.Value(), fe.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
