package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioadmin/folio-admin/internal/domain"
	domainerrors "github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/validation"
)

type beginRequest struct {
	Kind string `json:"kind" validate:"required,oneof=post book hobby question skill"`
	ID   string `json:"id,omitempty" validate:"omitempty,max=64"`
}

func schema(t *testing.T, kind domain.Kind) *domain.Schema {
	t.Helper()
	c, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)
	s, err := c.Schema(kind)
	require.NoError(t, err)
	return s
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var e *domainerrors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus())
	d, ok := e.Details.(map[string]string)
	require.True(t, ok)
	return d
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(beginRequest{Kind: "post"}))

	err := v.Validate(beginRequest{Kind: "podcast"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"kind": "must be one of: post book hobby question skill"}, details(t, err))
}

func TestValidator_ValidateForm_ValidPost(t *testing.T) {
	v := validation.New()
	form := domain.Form{
		"link":          "https://x",
		"likes":         "5",
		"commentsSum":   "2",
		"enDescription": "hi",
		"kaDescription": "გამარჯობა",
	}

	assert.NoError(t, v.ValidateForm(schema(t, domain.KindPost), form, domain.DefaultLanguages, true))
}

func TestValidator_ValidateForm_Errors(t *testing.T) {
	v := validation.New()
	form := domain.Form{
		"link":          "not a url",
		"likes":         "abc",
		"enDescription": "  ",
	}

	err := v.ValidateForm(schema(t, domain.KindPost), form, domain.DefaultLanguages, true)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, map[string]string{
		"link":          "must be a valid URL",
		"likes":         "must be an integer",
		"commentsSum":   "is required",
		"enDescription": "is required",
		"kaDescription": "is required",
	}, details(t, err))
}

func TestValidator_ValidateForm_EditSkipsAbsentLanguage(t *testing.T) {
	v := validation.New()
	form := domain.Form{"enQuestion": "why?", "enAnswer": "because"}
	s := schema(t, domain.KindQuestion)

	assert.NoError(t, v.ValidateForm(s, form, domain.DefaultLanguages, false))

	err := v.ValidateForm(s, form, domain.DefaultLanguages, true)
	assert.Equal(t, map[string]string{
		"kaQuestion": "is required",
		"kaAnswer":   "is required",
	}, details(t, err))
}

func TestValidator_ValidateForm_OptionalBookScalars(t *testing.T) {
	v := validation.New()
	s := schema(t, domain.KindBook)
	form := domain.Form{
		"enTitle": "Dune", "enDescription": "<p>spice</p>", "enAuthor": "Herbert",
		"kaTitle": "დიუნა", "kaDescription": "<p>სანელებელი</p>", "kaAuthor": "ჰერბერტი",
	}
	require.NoError(t, v.ValidateForm(s, form, domain.DefaultLanguages, true))

	form["finished"] = "maybe"
	form["pages"] = "-1"
	err := v.ValidateForm(s, form, domain.DefaultLanguages, true)
	assert.Equal(t, map[string]string{
		"finished": "must be true or false",
		"pages":    "must be an integer",
	}, details(t, err))
}
