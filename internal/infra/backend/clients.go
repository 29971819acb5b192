package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// ListClients lists client records matching the scope query.
func (c *Client) ListClients(ctx context.Context, token string, q url.Values) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	_, err := c.do(ctx, call{
		op: "ListClients", method: http.MethodGet, path: "/api/clients",
		token: token, query: q, result: &out, idempotent: true, resource: "clients",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ClientRecord{}
	}
	return out, nil
}

// GetClient fetches one client record.
func (c *Client) GetClient(ctx context.Context, token, id string) (*domain.ClientRecord, error) {
	var out domain.ClientRecord
	_, err := c.do(ctx, call{
		op: "GetClient", method: http.MethodGet, path: "/api/clients/" + url.PathEscape(id),
		token: token, result: &out, idempotent: true, resource: "client", id: id,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient stores a new client record.
func (c *Client) CreateClient(ctx context.Context, token string, rec domain.ClientRecord) (*domain.ClientRecord, error) {
	var out domain.ClientRecord
	_, err := c.do(ctx, call{
		op: "CreateClient", method: http.MethodPost, path: "/api/clients",
		token: token, body: rec, result: &out, resource: "client",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClient replaces a client record.
func (c *Client) UpdateClient(ctx context.Context, token, id string, rec domain.ClientRecord) (*domain.ClientRecord, error) {
	var out domain.ClientRecord
	_, err := c.do(ctx, call{
		op: "UpdateClient", method: http.MethodPut, path: "/api/clients/" + url.PathEscape(id),
		token: token, body: rec, result: &out, resource: "client", id: id,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient removes a client record.
func (c *Client) DeleteClient(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, call{
		op: "DeleteClient", method: http.MethodDelete, path: "/api/clients/" + url.PathEscape(id),
		token: token, resource: "client", id: id,
	})
	return err
}

// ClientPDF downloads the generated agreement for a client.
func (c *Client) ClientPDF(ctx context.Context, token, id string) (*domain.Document, error) {
	resp, err := c.do(ctx, call{
		op: "ClientPDF", method: http.MethodGet, path: "/api/clients/" + url.PathEscape(id) + "/pdf",
		token: token, idempotent: true, resource: "client document", id: id,
	})
	if err != nil {
		return nil, err
	}
	ct := resp.Header().Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	return &domain.Document{ContentType: ct, Filename: "client-" + id + ".pdf", Data: resp.Body()}, nil
}
