package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/id"
	"github.com/folioadmin/folio-admin/internal/payload"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// entityColumns must match the scan order in scanEntity.
const entityColumns = `e.id, e.kind, e.attributes, e.image, e.created_at, e.updated_at,
	(SELECT parent_id FROM entity_links l WHERE l.entity_id = e.id ORDER BY relation LIMIT 1)`

func scanEntity(scanner interface{ Scan(dest ...any) error }, schema *domain.Schema) (*domain.Entity, error) {
	var (
		e         domain.Entity
		kind      string
		attrs     string
		image     sql.NullString
		createdAt string
		updatedAt string
		parentID  sql.NullString
	)
	if err := scanner.Scan(&e.ID, &kind, &attrs, &image, &createdAt, &updatedAt, &parentID); err != nil {
		return nil, err
	}
	e.Kind = domain.Kind(kind)
	if image.Valid {
		e.Image = &image.String
	}
	e.ParentID = parentID.String

	var err error
	if e.Attributes, err = decodeAttributes(schema, attrs); err != nil {
		return nil, fmt.Errorf("entity %s: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// decodeAttributes reads the stored JSON object, narrowing integer scalars to int64.
func decodeAttributes(schema *domain.Schema, raw string) (map[string]any, error) {
	attrs := make(map[string]any)
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	for _, sc := range schema.Scalars {
		n, ok := attrs[sc.Name].(json.Number)
		if !ok || sc.Type != domain.ScalarInt {
			continue
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", sc.Name, err)
		}
		attrs[sc.Name] = i
	}
	return attrs, nil
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// FetchAll implements transport.Querier. Entities are returned in creation order.
func (s *Store) FetchAll(ctx context.Context, schema *domain.Schema) ([]*domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities e WHERE e.kind = ? ORDER BY e.created_at, e.rowid`,
		string(schema.Kind))
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []*domain.Entity
	byID := make(map[string]*domain.Entity)
	for rows.Next() {
		e, err := scanEntity(rows, schema)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if err := s.loadTranslations(ctx, s.db, schema.Kind, byID); err != nil {
		return nil, err
	}

	if entities == nil {
		entities = []*domain.Entity{}
	}
	return entities, nil
}

func (s *Store) loadTranslations(ctx context.Context, q queryer, kind domain.Kind, byID map[string]*domain.Entity) error {
	if len(byID) == 0 {
		return nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.entity_id, t.language_code, t.fields
		FROM translations t JOIN entities e ON e.id = t.entity_id
		WHERE e.kind = ?
		ORDER BY t.entity_id, t.language_code`, string(kind))
	if err != nil {
		return fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tr       domain.Translation
			entityID string
			lang     string
			fields   string
		)
		if err := rows.Scan(&tr.ID, &entityID, &lang, &fields); err != nil {
			return fmt.Errorf("scan translation: %w", err)
		}
		e, ok := byID[entityID]
		if !ok {
			continue
		}
		tr.LanguageCode = domain.LanguageCode(lang)
		if err := json.Unmarshal([]byte(fields), &tr.Fields); err != nil {
			return fmt.Errorf("decode translation %s: %w", tr.ID, err)
		}
		e.Translations = append(e.Translations, tr)
	}
	return rows.Err()
}

func (s *Store) getEntity(ctx context.Context, q queryer, schema *domain.Schema, entityID string) (*domain.Entity, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities e WHERE e.id = ? AND e.kind = ?`,
		entityID, string(schema.Kind))
	e, err := scanEntity(row, schema)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("%s %s not found", schema.Noun(), entityID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, language_code, fields FROM translations WHERE entity_id = ? ORDER BY language_code`, entityID)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tr     domain.Translation
			lang   string
			fields string
		)
		if err := rows.Scan(&tr.ID, &lang, &fields); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		tr.LanguageCode = domain.LanguageCode(lang)
		if err := json.Unmarshal([]byte(fields), &tr.Fields); err != nil {
			return nil, fmt.Errorf("decode translation %s: %w", tr.ID, err)
		}
		e.Translations = append(e.Translations, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// Create implements transport.Mutator. The entity, all its translations and
// its parent links are inserted in one transaction.
func (s *Store) Create(ctx context.Context, schema *domain.Schema, p *payload.Payload) (*domain.Entity, error) {
	if p.Mode != payload.ModeCreate {
		return nil, errors.InvalidModef("sqlite: create with %s payload", p.Mode)
	}

	attrs := make(map[string]any)
	var (
		image        *string
		translations []codec.TranslationInput
		links        = make(map[string]string)
	)
	for key, val := range p.Data {
		switch v := val.(type) {
		case payload.CreateMany:
			translations = v.CreateMany.Data
		case payload.Connect:
			links[key] = v.Connect.ID
		default:
			if key == payload.KeyImage {
				ref, ok := v.(string)
				if !ok {
					return nil, errors.Validationf("image must be a string, got %T", v)
				}
				image = &ref
				continue
			}
			if _, ok := schema.Scalar(key); !ok {
				return nil, errors.Validationf("unknown %s field %q", schema.Noun(), key)
			}
			attrs[key] = v
		}
	}
	if len(translations) == 0 {
		return nil, errors.Validationf("%s needs translations", schema.Noun())
	}

	entityID, err := id.Generate(string(schema.Kind))
	if err != nil {
		return nil, err
	}
	attrJSON, err := encodeJSON(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entities (id, kind, attributes, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entityID, string(schema.Kind), attrJSON, nullableString(image), now, now,
	); err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}

	for _, tr := range translations {
		trID, err := id.Generate(id.PrefixTranslation)
		if err != nil {
			return nil, err
		}
		fields, err := encodeJSON(tr.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode translation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO translations (id, entity_id, language_code, fields)
			VALUES (?, ?, ?, ?)`,
			trID, entityID, string(tr.LanguageCode), fields,
		); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return nil, errors.Conflict("duplicate translation for " + string(tr.LanguageCode))
			}
			return nil, fmt.Errorf("insert translation: %w", err)
		}
	}

	for relation, parentID := range links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entity_links (entity_id, relation, parent_id) VALUES (?, ?, ?)`,
			entityID, relation, parentID,
		); err != nil {
			return nil, fmt.Errorf("insert link: %w", err)
		}
	}

	e, err := s.getEntity(ctx, tx, schema, entityID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("entity created", "kind", schema.Kind, "entity_id", entityID, "translations", len(translations))
	return e, nil
}

// Update implements transport.Mutator. Set-wrapped scalars replace stored
// values (nil clears); translation patches are applied by language code and
// match nothing for a language without a stored record.
func (s *Store) Update(ctx context.Context, schema *domain.Schema, entityID string, p *payload.Payload) (*domain.Entity, error) {
	if p.Mode != payload.ModeEdit {
		return nil, errors.InvalidModef("sqlite: update with %s payload", p.Mode)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getEntity(ctx, tx, schema, entityID)
	if err != nil {
		return nil, err
	}

	attrs := current.Attributes
	image := current.Image
	var patches []codec.TranslationPatch

	for key, val := range p.Data {
		switch v := val.(type) {
		case payload.UpdateMany:
			patches = v.Patches()
		case payload.Set:
			if key == payload.KeyImage {
				image = nil
				if ref, ok := v.Set.(string); ok && ref != "" {
					image = &ref
				}
				continue
			}
			if _, ok := schema.Scalar(key); !ok {
				return nil, errors.Validationf("unknown %s field %q", schema.Noun(), key)
			}
			if v.Set == nil {
				delete(attrs, key)
			} else {
				attrs[key] = v.Set
			}
		default:
			return nil, errors.Validationf("%s field %q must be wrapped in set", schema.Noun(), key)
		}
	}

	attrJSON, err := encodeJSON(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE entities SET attributes = ?, image = ?, updated_at = ? WHERE id = ?`,
		attrJSON, nullableString(image), formatTime(s.now()), entityID,
	); err != nil {
		return nil, fmt.Errorf("update entity: %w", err)
	}

	touched := make(map[domain.LanguageCode]bool, len(patches))
	for _, patch := range patches {
		touched[patch.LanguageCode] = true
	}
	for _, tr := range codec.ApplyPatches(current.Translations, patches) {
		if !touched[tr.LanguageCode] {
			continue
		}
		fields, err := encodeJSON(tr.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode translation: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE translations SET fields = ? WHERE entity_id = ? AND language_code = ?`,
			fields, entityID, string(tr.LanguageCode),
		); err != nil {
			return nil, fmt.Errorf("update translation: %w", err)
		}
	}

	e, err := s.getEntity(ctx, tx, schema, entityID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("entity updated", "kind", schema.Kind, "entity_id", entityID, "patches", len(patches))
	return e, nil
}

// Delete implements transport.Mutator. Translations and links cascade.
func (s *Store) Delete(ctx context.Context, schema *domain.Schema, entityID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE id = ? AND kind = ?`, entityID, string(schema.Kind))
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errors.NotFoundf("%s %s not found", schema.Noun(), entityID)
	}
	s.logger.Debug("entity deleted", "kind", schema.Kind, "entity_id", entityID)
	return nil
}

// Stats returns entity counts per kind.
func (s *Store) Stats(ctx context.Context) (map[domain.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM entities GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[domain.Kind(kind)] = n
	}
	return out, rows.Err()
}
