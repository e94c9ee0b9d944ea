package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
)

var langs = []domain.LanguageCode{domain.LanguageEnglish, domain.LanguageGeorgian}

func schemaFor(t *testing.T, kind domain.Kind) *domain.Schema {
	t.Helper()
	c, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)
	s, err := c.Schema(kind)
	require.NoError(t, err)
	return s
}

func testPost() *domain.Entity {
	img := "https://res.cloudinary.com/demo/image/upload/p.jpg"
	return &domain.Entity{
		ID:   "post-1",
		Kind: domain.KindPost,
		Attributes: map[string]any{
			"link":        "https://x",
			"likes":       int64(12),
			"commentsSum": float64(2), // JSON transports decode numbers as float64
		},
		Image: &img,
		Translations: []domain.Translation{
			{ID: "t-en", LanguageCode: "en", Fields: map[string]string{"description": "hi"}},
			{ID: "t-ka", LanguageCode: "ka", Fields: map[string]string{"description": "გამარჯობა"}},
		},
	}
}

func TestDecode_Post(t *testing.T) {
	form := Decode(schemaFor(t, domain.KindPost), testPost(), langs)

	assert.Equal(t, domain.Form{
		"link":          "https://x",
		"likes":         "12",
		"commentsSum":   "2",
		"enDescription": "hi",
		"kaDescription": "გამარჯობა",
	}, form)
	_, hasImage := form["image"]
	assert.False(t, hasImage, "image is session state, never a form slot")
}

func TestDecode_MissingLanguageLeavesSlotUndefined(t *testing.T) {
	post := testPost()
	post.Translations = post.Translations[:1]

	form := Decode(schemaFor(t, domain.KindPost), post, langs)

	_, ok := form.Get("kaDescription")
	assert.False(t, ok)
	assert.Equal(t, "hi", form["enDescription"])
}

func TestDecode_BoolAndNil(t *testing.T) {
	book := &domain.Entity{
		ID:         "book-1",
		Attributes: map[string]any{"finished": true, "pages": nil, "type": "novel"},
	}

	form := Decode(schemaFor(t, domain.KindBook), book, langs)

	assert.Equal(t, "true", form["finished"])
	assert.Equal(t, "novel", form["type"])
	_, ok := form["pages"]
	assert.False(t, ok)
}

func TestEncodeForCreate_AlwaysEmitsEveryLanguage(t *testing.T) {
	schema := schemaFor(t, domain.KindQuestion)

	forms := []domain.Form{
		{},
		{"enQuestion": "why?"},
		{"enQuestion": "why?", "enAnswer": "because", "kaQuestion": "რატომ?", "kaAnswer": "იმიტომ"},
	}
	for _, form := range forms {
		out := EncodeForCreate(schema, form, langs)
		require.Len(t, out, 2)
		assert.Equal(t, domain.LanguageEnglish, out[0].LanguageCode)
		assert.Equal(t, domain.LanguageGeorgian, out[1].LanguageCode)
	}
}

func TestTranslationInput_MarshalsFlat(t *testing.T) {
	in := TranslationInput{LanguageCode: "ka", Fields: map[string]string{"description": "გამარჯობა"}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"languageCode":"ka","description":"გამარჯობა"}`, string(data))
}

func TestEncodeForUpdate_KeyedByLanguage(t *testing.T) {
	schema := schemaFor(t, domain.KindPost)
	form := domain.Form{"enDescription": "hi", "kaDescription": "new"}

	patches := EncodeForUpdate(schema, form, langs)

	assert.Equal(t, []TranslationPatch{
		{LanguageCode: "en", Fields: map[string]string{"description": "hi"}},
		{LanguageCode: "ka", Fields: map[string]string{"description": "new"}},
	}, patches)
}

func TestEncodeForUpdate_SkipsLanguagesAbsentFromForm(t *testing.T) {
	schema := schemaFor(t, domain.KindPost)

	patches := EncodeForUpdate(schema, domain.Form{"enDescription": "hi"}, langs)

	require.Len(t, patches, 1)
	assert.Equal(t, domain.LanguageEnglish, patches[0].LanguageCode)
}

func TestRoundTrip_DecodeUpdateApplyDecode(t *testing.T) {
	for _, kind := range []domain.Kind{domain.KindPost, domain.KindBook, domain.KindHobby, domain.KindQuestion, domain.KindSkill} {
		t.Run(string(kind), func(t *testing.T) {
			schema := schemaFor(t, kind)
			entity := fullEntity(schema)

			form := Decode(schema, entity, langs)
			patches := EncodeForUpdate(schema, form, langs)

			patched := *entity
			patched.Translations = ApplyPatches(entity.Translations, patches)

			assert.Equal(t, form, Decode(schema, &patched, langs))
			for _, lang := range langs {
				want, _ := entity.Translation(lang)
				got, _ := patched.Translation(lang)
				assert.Equal(t, want.Fields, got.Fields)
			}
		})
	}
}

func TestApplyPatches_DoesNotMutateInput(t *testing.T) {
	original := testPost().Translations
	patched := ApplyPatches(original, []TranslationPatch{
		{LanguageCode: "ka", Fields: map[string]string{"description": "changed"}},
		{LanguageCode: "de", Fields: map[string]string{"description": "ignored"}},
	})

	assert.Equal(t, "გამარჯობა", original[1].Fields["description"])
	assert.Equal(t, "changed", patched[1].Fields["description"])
	assert.Equal(t, "hi", patched[0].Fields["description"])
	assert.Len(t, patched, 2)
}

func TestParseInt_Strict(t *testing.T) {
	n, err := ParseInt("likes", "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	for _, bad := range []string{"abc", "12abc", " 12", "1.5", ""} {
		_, err := ParseInt("likes", bad)
		assert.True(t, errors.Is(err, errors.ErrValidation), "input %q", bad)
	}
}

func TestParseScalar(t *testing.T) {
	v, err := ParseScalar(domain.Scalar{Name: "finished", Type: domain.ScalarBool}, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = ParseScalar(domain.Scalar{Name: "link", Type: domain.ScalarString}, "https://x")
	require.NoError(t, err)
	assert.Equal(t, "https://x", v)

	_, err = ParseScalar(domain.Scalar{Name: "finished", Type: domain.ScalarBool}, "yes")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{12, "12"},
		{int64(-3), "-3"},
		{float64(7), "7"},
		{1.5, "1.5"},
		{json.Number("42"), "42"},
		{false, "false"},
		{"x", "x"},
	}
	for _, tt := range tests {
		got, ok := FormatScalar(tt.in)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
	_, ok := FormatScalar([]string{"no"})
	assert.False(t, ok)
}

// fullEntity builds an entity with every scalar and both translations filled.
func fullEntity(schema *domain.Schema) *domain.Entity {
	e := &domain.Entity{ID: string(schema.Kind) + "-1", Kind: schema.Kind, Attributes: map[string]any{}}
	for _, sc := range schema.Scalars {
		switch sc.Type {
		case domain.ScalarInt:
			e.Attributes[sc.Name] = int64(7)
		case domain.ScalarBool:
			e.Attributes[sc.Name] = true
		default:
			e.Attributes[sc.Name] = "https://example.com/" + sc.Name
		}
	}
	for _, lang := range langs {
		tr := domain.Translation{ID: "t-" + string(lang), LanguageCode: lang, Fields: map[string]string{}}
		for _, f := range schema.Localized {
			tr.Fields[f.Name] = string(lang) + " " + f.Name
		}
		e.Translations = append(e.Translations, tr)
	}
	return e
}
