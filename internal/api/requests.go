package api

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
}

// RecommendRequest accepts the movie id as a JSON number or a numeric string.
type RecommendRequest struct {
	ID any `json:"id"`
}

var (
	errMissingID    = errors.New("missing movie id")
	errNonNumericID = errors.New("movie id must be numeric")
)

// MovieID coerces the request id to an int.
func (r RecommendRequest) MovieID() (int, error) {
	switch v := r.ID.(type) {
	case nil:
		return 0, errMissingID
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, errNonNumericID
		}
		return int(v), nil
	case string:
		return parseMovieID(v)
	default:
		return 0, errNonNumericID
	}
}

func parseMovieID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMissingID
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNonNumericID, s)
	}
	return id, nil
}

// validationMessage turns validator errors into one short sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return strings.ToLower(fe.Field()) + " is required"
	}
	return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
}
