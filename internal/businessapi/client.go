package businessapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"barberia_backend/platform/apperr"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"
)

// Client is the HTTP client for the business API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// New creates a new business API client.
func New(cfg config.BusinessAPIConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetBusinessAPITimeout()},
		baseURL:    strings.TrimRight(cfg.GetBusinessAPIBaseURL(), "/"),
		token:      cfg.GetBusinessAPIToken(),
		log:        log,
	}
}

// ListUsuarios fetches all usuario records.
func (c *Client) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	var usuarios []Usuario
	if err := c.do(ctx, http.MethodGet, "/usuarios", nil, &usuarios); err != nil {
		return nil, err
	}
	return usuarios, nil
}

// FindUsuarioByCorreo locates a usuario by email, case-insensitively.
// The upstream API has no filter endpoint, so this scans the listing.
// Returns (nil, nil) when no record matches.
func (c *Client) FindUsuarioByCorreo(ctx context.Context, correo string) (*Usuario, error) {
	usuarios, err := c.ListUsuarios(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(correo))
	for i := range usuarios {
		if strings.ToLower(strings.TrimSpace(usuarios[i].Correo)) == needle {
			return &usuarios[i], nil
		}
	}
	return nil, nil
}

// CreateUsuario creates a usuario record.
func (c *Client) CreateUsuario(ctx context.Context, u Usuario) (*Usuario, error) {
	var created Usuario
	if err := c.do(ctx, http.MethodPost, "/usuarios", u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUsuario updates a usuario record.
func (c *Client) UpdateUsuario(ctx context.Context, id int, u Usuario) (*Usuario, error) {
	var updated Usuario
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/usuarios/%d", id), u, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUsuario removes a usuario record. Administrative use only; the sync
// core never deletes usuarios.
func (c *Client) DeleteUsuario(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/usuarios/%d", id), nil, nil)
}

// ListClientes fetches all cliente profiles.
func (c *Client) ListClientes(ctx context.Context) ([]Cliente, error) {
	var clientes []Cliente
	if err := c.do(ctx, http.MethodGet, "/clientes", nil, &clientes); err != nil {
		return nil, err
	}
	return clientes, nil
}

// CreateCliente creates a cliente profile.
func (c *Client) CreateCliente(ctx context.Context, cliente Cliente) (*Cliente, error) {
	var created Cliente
	if err := c.do(ctx, http.MethodPost, "/clientes", cliente, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListBarberos fetches all barbero profiles.
func (c *Client) ListBarberos(ctx context.Context) ([]Barbero, error) {
	var barberos []Barbero
	if err := c.do(ctx, http.MethodGet, "/barberos", nil, &barberos); err != nil {
		return nil, err
	}
	return barberos, nil
}

// CreateBarbero creates a barbero profile.
func (c *Client) CreateBarbero(ctx context.Context, barbero Barbero) (*Barbero, error) {
	var created Barbero
	if err := c.do(ctx, http.MethodPost, "/barberos", barbero, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Ping reports whether the business API is reachable. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/usuarios", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	op := "businessapi." + method + " " + path

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apperr.Internal("encode request", err).WithOp(op)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, body)
	if err != nil {
		return apperr.Internal("create request", err).WithOp(op)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("businessapi", method+" "+path, err)
		return apperr.Unavailable("business API unreachable", err).WithOp(op)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Success - continue to decode
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("resource not found").WithOp(op)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return apperr.Validation(readErrorMessage(resp)).WithOp(op)
	case resp.StatusCode == http.StatusConflict:
		return apperr.Conflict(readErrorMessage(resp)).WithOp(op)
	default:
		c.log.UpstreamError("businessapi", method+" "+path, fmt.Errorf("status %d", resp.StatusCode))
		return apperr.Unavailable("business API error", fmt.Errorf("status %d", resp.StatusCode)).WithOp(op)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUnknown, "decode response", err).WithOp(op)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request rejected"
}

var _ API = (*Client)(nil)
