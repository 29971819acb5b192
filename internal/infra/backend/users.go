package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
)

// Me returns the user behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	_, err := c.do(ctx, call{
		op: "Me", method: http.MethodGet, path: "/api/users/me",
		token: token, result: &out, idempotent: true, resource: "user", id: "me",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe edits the caller's own profile.
func (c *Client) UpdateMe(ctx context.Context, token string, req domain.UpdateProfileRequest) (*domain.User, error) {
	var out domain.User
	_, err := c.do(ctx, call{
		op: "UpdateMe", method: http.MethodPut, path: "/api/users/me",
		token: token, body: req, result: &out, resource: "profile", id: "me",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProfilePicture replaces the caller's picture.
func (c *Client) UploadProfilePicture(ctx context.Context, token string, file form.Upload) (*domain.User, error) {
	var out domain.User
	err := c.uploads.Do(ctx, func() error {
		_, err := c.do(ctx, call{
			op: "UploadProfilePicture", method: http.MethodPost, path: "/api/users/me/profile-picture",
			token: token, result: &out, resource: file.Field,
			prepare: multipart(nil, []form.Upload{file}),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers lists users matching the scope query.
func (c *Client) ListUsers(ctx context.Context, token string, q url.Values) ([]domain.User, error) {
	var out []domain.User
	_, err := c.do(ctx, call{
		op: "ListUsers", method: http.MethodGet, path: "/api/users",
		token: token, query: q, result: &out, idempotent: true, resource: "users",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.User{}
	}
	return out, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, token, id string) (*domain.User, error) {
	var out domain.User
	_, err := c.do(ctx, call{
		op: "GetUser", method: http.MethodGet, path: "/api/users/" + url.PathEscape(id),
		token: token, result: &out, idempotent: true, resource: "user", id: id,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserStatus activates or deactivates a user.
func (c *Client) SetUserStatus(ctx context.Context, token, id string, active bool) (*domain.User, error) {
	var out domain.User
	_, err := c.do(ctx, call{
		op: "SetUserStatus", method: http.MethodPatch, path: "/api/users/" + url.PathEscape(id) + "/status",
		token: token, body: domain.UserStatusRequest{IsActive: active}, result: &out, resource: "user", id: id,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser hard-removes a user.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, call{
		op: "DeleteUser", method: http.MethodDelete, path: "/api/users/" + url.PathEscape(id),
		token: token, resource: "user", id: id,
	})
	return err
}
