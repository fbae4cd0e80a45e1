package services

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/placementtracker/internal/common"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	emailRules = []validation.Rule{
		validation.Required,
		validation.Length(1, 254),
		is.Email,
	}
	usernameRules = []validation.Rule{
		validation.Required,
		validation.Length(3, 150),
		validation.Match(usernamePattern).Error("may contain only letters, digits and @/./+/-/_ characters"),
	}
	passwordRules = []validation.Rule{
		validation.Required,
		validation.Length(common.MinPasswordLength, common.MaxPasswordBytes),
	}
	nameRules = []validation.Rule{
		validation.Length(0, 150),
	}
)

// equalTo fails unless the value equals other.
func equalTo(other string, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(msg)
		}
		return nil
	})
}

// asValidationError converts ozzo errors into *common.ValidationError keyed
// by JSON field name. Internal rule failures pass through unchanged.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &common.ValidationError{Fields: make(map[string]string, len(verrs))}
	for field, ferr := range verrs {
		if ferr != nil {
			out.Fields[field] = ferr.Error()
		}
	}
	return out
}
