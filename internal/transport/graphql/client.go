// Package graphql is the remote backend transport: it renders the CRUD
// documents of each kind and posts them to the GraphQL endpoint.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/folioadmin/folio-admin/internal/domain"
	domainerrors "github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/payload"
	"github.com/folioadmin/folio-admin/internal/ratelimit"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 10
	defaultIDType  = "Int"
	maxBodyBytes   = 16 << 20
)

// Config configures a Client.
type Config struct {
	Endpoint string
	Token    string // bearer token, optional
	Timeout  time.Duration
	RPS      float64
	Burst    int
	IDType   string // GraphQL scalar of entity ids, "Int" by default
}

// Client is a rate-limited GraphQL backend client.
type Client struct {
	endpoint string
	host     string
	token    string
	idType   string
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// New creates a client for cfg.Endpoint.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("graphql: invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.IDType == "" {
		cfg.IDType = defaultIDType
	}

	return &Client{
		endpoint: u.String(),
		host:     u.Host,
		token:    cfg.Token,
		idType:   cfg.IDType,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst),
		logger:   logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// FetchAll implements transport.Querier.
func (c *Client) FetchAll(ctx context.Context, s *domain.Schema) ([]*domain.Entity, error) {
	op := findManyOp(s)
	var data map[string][]rawEntity
	if err := c.do(ctx, op, findManyDoc(s), nil, &data); err != nil {
		return nil, wrapError(op, s.Model, err)
	}

	raws := data[op]
	out := make([]*domain.Entity, 0, len(raws))
	for _, raw := range raws {
		e, err := toEntity(s, raw)
		if err != nil {
			return nil, wrapError(op, s.Model, err)
		}
		if missing := e.MissingLanguages(domain.DefaultLanguages); len(missing) > 0 {
			c.logger.Debug("entity loaded with missing translations", "kind", s.Kind, "entity_id", e.ID, "languages", missing)
		}
		out = append(out, e)
	}
	return out, nil
}

// Create implements transport.Mutator.
func (c *Client) Create(ctx context.Context, s *domain.Schema, p *payload.Payload) (*domain.Entity, error) {
	if p.Mode != payload.ModeCreate {
		return nil, fmt.Errorf("graphql: create with %s payload", p.Mode)
	}
	return c.mutateOne(ctx, s, createOneOp(s), createOneDoc(s), p.Variables())
}

// Update implements transport.Mutator.
func (c *Client) Update(ctx context.Context, s *domain.Schema, id string, p *payload.Payload) (*domain.Entity, error) {
	if p.Mode != payload.ModeEdit {
		return nil, fmt.Errorf("graphql: update with %s payload", p.Mode)
	}
	idVar, err := c.idVariable(id)
	if err != nil {
		return nil, wrapError(updateOneOp(s), s.Model, err)
	}
	vars := p.Variables()
	vars["id"] = idVar
	return c.mutateOne(ctx, s, updateOneOp(s), updateOneDoc(s, c.idType), vars)
}

// Delete implements transport.Mutator.
func (c *Client) Delete(ctx context.Context, s *domain.Schema, id string) error {
	op := deleteOneOp(s)
	idVar, err := c.idVariable(id)
	if err != nil {
		return wrapError(op, s.Model, err)
	}
	var data map[string]rawEntity
	if err := c.do(ctx, op, deleteOneDoc(s, c.idType), map[string]any{"id": idVar}, &data); err != nil {
		return wrapError(op, s.Model, err)
	}
	return nil
}

// idVariable converts an entity id to the JSON value the id scalar expects.
// Entity ids are strings in the domain; an Int scalar needs a JSON number.
func (c *Client) idVariable(id string) (any, error) {
	if c.idType != "Int" {
		return id, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domainerrors.Validationf("entity id %q is not an integer", id)
	}
	return n, nil
}

func (c *Client) mutateOne(ctx context.Context, s *domain.Schema, op, doc string, vars map[string]any) (*domain.Entity, error) {
	var data map[string]rawEntity
	if err := c.do(ctx, op, doc, vars, &data); err != nil {
		return nil, wrapError(op, s.Model, err)
	}
	raw, ok := data[op]
	if !ok || raw == nil {
		return nil, wrapError(op, s.Model, ErrNoData)
	}
	e, err := toEntity(s, raw)
	if err != nil {
		return nil, wrapError(op, s.Model, err)
	}
	return e, nil
}

type request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts one operation and decodes its data into out.
func (c *Client) do(ctx context.Context, op, doc string, vars map[string]any, out any) error {
	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(request{OperationName: upperFirst(op), Query: doc, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("graphql request", "op", op)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("graphql response", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return ErrServer
	}

	var r response
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if len(r.Errors) > 0 {
		re := &ResponseError{Op: op}
		for _, e := range r.Errors {
			re.Messages = append(re.Messages, e.Message)
		}
		return re
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return ErrNoData
	}

	dec = json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
