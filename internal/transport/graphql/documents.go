package graphql

import (
	"fmt"
	"strings"

	"github.com/folioadmin/folio-admin/internal/domain"
)

// Operation names follow the generated CRUD resolvers of the backend:
// findMany<Model>, createOne<Model>, updateOne<Model>, deleteOne<Model>.

func findManyOp(s *domain.Schema) string  { return "findMany" + s.Model }
func createOneOp(s *domain.Schema) string { return "createOne" + s.Model }
func updateOneOp(s *domain.Schema) string { return "updateOne" + s.Model }
func deleteOneOp(s *domain.Schema) string { return "deleteOne" + s.Model }

// selection renders the fields selected for an entity of s.
func selection(s *domain.Schema) string {
	var b strings.Builder
	b.WriteString("id")
	for _, sc := range s.Scalars {
		b.WriteString(" ")
		b.WriteString(sc.Name)
	}
	if s.HasImage {
		b.WriteString(" image")
	}
	b.WriteString(" translations { id languageCode")
	for _, f := range s.Localized {
		b.WriteString(" ")
		b.WriteString(f.Name)
	}
	b.WriteString(" }")
	return b.String()
}

func findManyDoc(s *domain.Schema) string {
	op := findManyOp(s)
	return fmt.Sprintf("query %s { %s { %s } }", upperFirst(op), op, selection(s))
}

func createOneDoc(s *domain.Schema) string {
	op := createOneOp(s)
	return fmt.Sprintf("mutation %s($input: %sCreateInput!) { %s(data: $input) { %s } }",
		upperFirst(op), s.Model, op, selection(s))
}

func updateOneDoc(s *domain.Schema, idType string) string {
	op := updateOneOp(s)
	return fmt.Sprintf("mutation %s($id: %s!, $data: %sUpdateInput!) { %s(where: { id: $id }, data: $data) { %s } }",
		upperFirst(op), idType, s.Model, op, selection(s))
}

func deleteOneDoc(s *domain.Schema, idType string) string {
	op := deleteOneOp(s)
	return fmt.Sprintf("mutation %s($id: %s!) { %s(where: { id: $id }) { id } }",
		upperFirst(op), idType, op)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
