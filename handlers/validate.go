package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racelog/models"
)

const maxBodyBytes = 4 << 20

var (
	clockRe    = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	durationRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d:[0-5]\d$`)
	httpURLRe  = regexp.MustCompile(`^https?://.+`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"racedate": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if !dateRe.MatchString(s) {
				return false
			}
			_, err := time.Parse(time.DateOnly, s)
			return err == nil
		},
		"clock": func(fl validator.FieldLevel) bool {
			return clockRe.MatchString(fl.Field().String())
		},
		// Empty values clear the field on update.
		"duration": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || durationRe.MatchString(s)
		},
		"httpurl": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || httpURLRe.MatchString(s)
		},
		"status": func(fl validator.FieldLevel) bool {
			return models.Status(fl.Field().String()).Valid()
		},
		"twodp": func(fl validator.FieldLevel) bool {
			cents := fl.Field().Float() * 100
			return math.Abs(cents-math.Round(cents)) < 1e-6
		},
		"password": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return lowerRe.MatchString(s) && upperRe.MatchString(s) && digitRe.MatchString(s)
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validation: %v", tag, err))
		}
	}
	return v
}

// validateStruct runs struct tag validation and converts failures into a
// ValidationError keyed by JSON field name.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &models.ValidationError{}
	for _, fe := range verrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "email":
		return "email must be valid"
	case "racedate":
		return "date must be a valid date in YYYY-MM-DD format"
	case "clock":
		return "time must be in HH:MM format"
	case "duration":
		return fe.Field() + " must be in HH:MM:SS format"
	case "httpurl":
		return fe.Field() + " must start with http:// or https://"
	case "status":
		names := make([]string, len(models.AllStatuses))
		for i, s := range models.AllStatuses {
			names[i] = string(s)
		}
		return "status must be one of: " + strings.Join(names, ", ")
	case "twodp":
		return fe.Field() + " must have at most 2 decimal places"
	case "password":
		return "password must contain a lowercase letter, an uppercase letter and a number"
	default:
		return fe.Field() + " is invalid"
	}
}

// bindStrict decodes the JSON request body into dst, rejecting unknown fields.
func bindStrict(c echo.Context, dst any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	return decodeStrict(body, dst)
}

func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must contain a single JSON value")
	}
	return nil
}

func decodeError(err error) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "request body has the wrong shape")
		}
		return models.NewValidationError(field, fmt.Sprintf("%s must be a %s", field, jsonKind(ute.Type)))
	}
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		name = strings.Trim(name, `"`)
		return models.NewValidationError(name, "unknown field "+name)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body")
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return "string"
	}
}

// RaceInput is the body of POST /races and one item of an import or export.
type RaceInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Date            string   `json:"date" validate:"required,racedate"`
	Time            string   `json:"time" validate:"required,clock"`
	Price           *float64 `json:"price" validate:"required,gte=0"`
	Distance        *float64 `json:"distance" validate:"required,gt=0,twodp"`
	RegistrationURL string   `json:"registrationUrl,omitempty" validate:"omitempty,httpurl"`
	Status          string   `json:"status" validate:"required,status"`
	CompletionTime  string   `json:"completionTime,omitempty" validate:"omitempty,duration"`
}

func (r *RaceInput) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RegistrationURL = strings.TrimSpace(r.RegistrationURL)
	r.CompletionTime = strings.TrimSpace(r.CompletionTime)
}

func (r *RaceInput) toRace(owner uuid.UUID) *models.Race {
	return &models.Race{
		UserID:          owner,
		Name:            r.Name,
		Date:            r.Date,
		Time:            r.Time,
		Price:           *r.Price,
		Distance:        *r.Distance,
		RegistrationURL: r.RegistrationURL,
		Status:          models.Status(r.Status),
		CompletionTime:  r.CompletionTime,
	}
}

func raceInputFrom(r *models.Race) RaceInput {
	price, distance := r.Price, r.Distance
	return RaceInput{
		Name:            r.Name,
		Date:            r.Date,
		Time:            r.Time,
		Price:           &price,
		Distance:        &distance,
		RegistrationURL: r.RegistrationURL,
		Status:          string(r.Status),
		CompletionTime:  r.CompletionTime,
	}
}

// raceUpdateRequest is the body of PUT /races/:id; absent fields are unchanged.
type raceUpdateRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Date            *string  `json:"date" validate:"omitempty,racedate"`
	Time            *string  `json:"time" validate:"omitempty,clock"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Distance        *float64 `json:"distance" validate:"omitempty,gt=0,twodp"`
	RegistrationURL *string  `json:"registrationUrl" validate:"omitempty,httpurl"`
	Status          *string  `json:"status" validate:"omitempty,status"`
	CompletionTime  *string  `json:"completionTime" validate:"omitempty,duration"`
}

func (r *raceUpdateRequest) normalize() {
	for _, p := range []*string{r.Name, r.RegistrationURL, r.CompletionTime} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

func (r *raceUpdateRequest) patch() models.RacePatch {
	p := models.RacePatch{
		Name:            r.Name,
		Date:            r.Date,
		Time:            r.Time,
		Price:           r.Price,
		Distance:        r.Distance,
		RegistrationURL: r.RegistrationURL,
		CompletionTime:  r.CompletionTime,
	}
	if r.Status != nil {
		s := models.Status(*r.Status)
		p.Status = &s
	}
	return p
}
