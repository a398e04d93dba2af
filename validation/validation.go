package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/incsearch/logger"
)

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidQuery = errors.New("invalid query")
)

type Validator struct {
	validator *validator.Validate
	logger    logger.Logger
	tagErrs   map[string]error
}

type customTag struct {
	tag string
	fn  validator.Func
	err error
}

func New(logger logger.Logger) (*Validator, error) {
	v := &Validator{
		validator: validator.New(),
		logger:    logger,
		tagErrs:   map[string]error{},
	}
	v.validator.RegisterTagNameFunc(jsonFieldName)

	for _, custom := range []customTag{
		{tag: "valid_path", fn: v.isValidPath, err: ErrInvalidPath},
		{tag: "valid_query", fn: v.isValidQuery, err: ErrInvalidQuery},
	} {
		if err := v.validator.RegisterValidation(custom.tag, custom.fn); err != nil {
			logger.Error("could not register validation", "tag", custom.tag, "err", err.Error())
			return nil, err
		}
		v.tagErrs[custom.tag] = custom.err
	}

	return v, nil
}

// Validate checks i against its validate tags and reports the first failure
// in terms of the request's JSON field names.
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	v.logger.Warn("validation failed", "err", err.Error())

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fieldErr := fieldErrs[0]
	if tagErr, ok := v.tagErrs[fieldErr.Tag()]; ok {
		return tagErr
	}
	switch fieldErr.Tag() {
	case "required":
		return fmt.Errorf("missing required field '%s'", fieldErr.Field())
	case "min":
		return fmt.Errorf("field '%s' must be at least %s", fieldErr.Field(), fieldErr.Param())
	case "max":
		return fmt.Errorf("field '%s' must be at most %s", fieldErr.Field(), fieldErr.Param())
	}
	return err
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isValidPath accepts an absolute path to an existing directory.
func (v *Validator) isValidPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if strings.ContainsRune(path, 0) || !filepath.IsAbs(path) {
		v.logger.Warn("path is not absolute", "path", path)
		return false
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		v.logger.Info("path is not an existing directory", "path", path)
		return false
	}

	return true
}

// isValidQuery accepts empty text, which queries everything in scope.
func (v *Validator) isValidQuery(fl validator.FieldLevel) bool {
	query := fl.Field().String()
	if strings.ContainsRune(query, 0) || !utf8.ValidString(query) {
		v.logger.Warn("query has a null byte or is not valid utf-8")
		return false
	}

	return true
}
