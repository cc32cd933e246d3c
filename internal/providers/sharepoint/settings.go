package sharepoint

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/BlackMission/spauth/internal/domain"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func withDefaults(s domain.StrategySettings) domain.StrategySettings {
	s.Path = rootPath
	if s.LoginMode == "" {
		s.LoginMode = domain.LoginModeDirect
	}
	if s.NameSplit == "" {
		s.NameSplit = domain.NameSplitFirstSpace
	}
	if s.AccessToken == "" {
		s.AccessToken = domain.AccessTokenPlaceholder
	}
	return s
}

// validateSettings reports every missing or malformed field in one error.
func validateSettings(s domain.StrategySettings) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ConfigurationError{Reason: err.Error()}
	}

	cfgErr := &domain.ConfigurationError{}
	var invalid []string
	for _, fe := range verrs {
		cfgErr.Fields = append(cfgErr.Fields, fe.Field())
		switch fe.Tag() {
		case "required", "required_if":
		default:
			invalid = append(invalid, fe.Field()+" fails "+fe.Tag())
		}
	}
	if len(invalid) > 0 {
		cfgErr.Reason = strings.Join(invalid, "; ")
	} else {
		cfgErr.Reason = "required settings are missing"
	}
	return cfgErr
}
