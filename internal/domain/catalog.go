package domain

import (
	"fmt"
	"slices"
)

// CatalogConfig holds the deployment constants the kind schemas depend on.
type CatalogConfig struct {
	Languages  []LanguageCode
	LinkedinID string // parent aggregate for posts and skills
	ProfileID  string // parent aggregate for hobbies and questions
}

// Catalog is the registry of kind schemas for one deployment.
type Catalog struct {
	languages []LanguageCode
	schemas   map[Kind]*Schema
	order     []Kind
}

// NewCatalog builds the five product schemas from cfg.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	if cfg.LinkedinID == "" {
		cfg.LinkedinID = "1"
	}
	if cfg.ProfileID == "" {
		cfg.ProfileID = "1"
	}

	c := &Catalog{
		languages: slices.Clone(langs),
		schemas:   make(map[Kind]*Schema),
	}
	for _, s := range productSchemas(cfg) {
		if err := c.Register(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds or replaces a schema.
func (c *Catalog) Register(s *Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, exists := c.schemas[s.Kind]; !exists {
		c.order = append(c.order, s.Kind)
	}
	c.schemas[s.Kind] = s
	return nil
}

// Languages returns the ordered supported language set.
func (c *Catalog) Languages() []LanguageCode {
	return slices.Clone(c.languages)
}

// Schema returns the schema for a kind.
func (c *Catalog) Schema(kind Kind) (*Schema, error) {
	s, ok := c.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return s, nil
}

// Schemas returns all schemas in registration order.
func (c *Catalog) Schemas() []*Schema {
	out := make([]*Schema, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.schemas[k])
	}
	return out
}

func productSchemas(cfg CatalogConfig) []*Schema {
	return []*Schema{
		{
			Kind:     KindPost,
			Model:    "Posts",
			Singular: "Post",
			Scalars: []Scalar{
				{Name: "link", Label: "Link", Type: ScalarString, Required: true, URL: true},
				{Name: "likes", Label: "Likes", Type: ScalarInt, Required: true},
				{Name: "commentsSum", Label: "Comments Sum", Type: ScalarInt, Required: true},
			},
			Localized: []LocalizedField{
				{Name: "description", Label: "Description", Required: true},
			},
			HasImage:    true,
			Connectors:  []Connector{{Relation: "linkedin", ID: cfg.LinkedinID}},
			LabelScalar: "link",
		},
		{
			Kind:     KindBook,
			Model:    "Books",
			Singular: "Book",
			Scalars: []Scalar{
				{Name: "link", Label: "Link", Type: ScalarString, URL: true},
				{Name: "pages", Label: "Pages", Type: ScalarInt},
				{Name: "readedPages", Label: "Readed Pages", Type: ScalarInt},
				{Name: "type", Label: "Type", Type: ScalarString},
				{Name: "finished", Label: "Finished", Type: ScalarBool},
			},
			Localized: []LocalizedField{
				{Name: "title", Label: "Title", Required: true},
				{Name: "description", Label: "Description", Required: true, RichText: true},
				{Name: "author", Label: "Author", Required: true},
			},
			HasImage:      true,
			LabelField:    "title",
			LabelLanguage: LanguageEnglish,
		},
		{
			Kind:     KindHobby,
			Model:    "Hobbys",
			Singular: "Hobby",
			Localized: []LocalizedField{
				{Name: "hobby", Label: "Hobby", Required: true},
				{Name: "aboutHobby", Label: "About Hobby", Required: true},
			},
			HasImage:      true,
			Connectors:    []Connector{{Relation: "profile", ID: cfg.ProfileID}},
			LabelField:    "hobby",
			LabelLanguage: LanguageEnglish,
		},
		{
			Kind:     KindQuestion,
			Model:    "Questions",
			Singular: "Question",
			Localized: []LocalizedField{
				{Name: "question", Label: "Question", Required: true},
				{Name: "answer", Label: "Answer", Required: true},
			},
			Connectors:    []Connector{{Relation: "profile", ID: cfg.ProfileID}},
			LabelField:    "question",
			LabelLanguage: LanguageEnglish,
		},
		{
			Kind:     KindSkill,
			Model:    "TopSkills",
			Singular: "Skill",
			Localized: []LocalizedField{
				{Name: "name", Label: "Name", Required: true},
				{Name: "linkedinName", Label: "Linkedin Name", Required: true},
			},
			Connectors:    []Connector{{Relation: "linkedin", ID: cfg.LinkedinID}},
			LabelField:    "name",
			LabelLanguage: LanguageEnglish,
		},
	}
}
