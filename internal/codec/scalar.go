package codec

import (
	"strconv"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
)

// ParseInt is the strict integer parser used for numeric form slots.
// "12" -> 12; "12abc", " 12" and "1.5" are validation errors.
func ParseInt(key, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.ValidationWithDetails(
			key+" must be an integer",
			map[string]string{key: "must be an integer"},
		)
	}
	return n, nil
}

// ParseBool accepts the forms strconv.ParseBool does ("true", "false", "1", "0", ...).
func ParseBool(key, raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.ValidationWithDetails(
			key+" must be true or false",
			map[string]string{key: "must be true or false"},
		)
	}
	return b, nil
}

// ParseScalar coerces a form string to the scalar's wire type.
func ParseScalar(sc domain.Scalar, raw string) (any, error) {
	switch sc.Type {
	case domain.ScalarInt:
		return ParseInt(sc.Name, raw)
	case domain.ScalarBool:
		return ParseBool(sc.Name, raw)
	default:
		return raw, nil
	}
}
