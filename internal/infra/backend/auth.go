package backend

import (
	"bytes"
	"context"
	"net/http"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"

	"github.com/go-resty/resty/v2"
)

// Login exchanges credentials for a bearer token and the user.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	_, err := c.do(ctx, call{
		op: "Login", method: http.MethodPost, path: "/api/auth/login",
		body: req, result: &out, resource: "credentials",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the bearer token upstream.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, call{
		op: "Logout", method: http.MethodPost, path: "/api/auth/logout",
		token: token, resource: "session",
	})
	return err
}

// ForgotPassword asks the backend to email a reset link.
func (c *Client) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	_, err := c.do(ctx, call{
		op: "ForgotPassword", method: http.MethodPost, path: "/api/auth/forgot-password",
		body: req, resource: "email",
	})
	return err
}

// ResetPassword consumes a reset token.
func (c *Client) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	_, err := c.do(ctx, call{
		op: "ResetPassword", method: http.MethodPost, path: "/api/auth/reset-password",
		body: req, resource: "reset link",
	})
	return err
}


// Register submits a registration as a single multipart request.
func (c *Client) Register(ctx context.Context, p domain.RegisterPayload) (*domain.RegisterResponse, error) {
	var out domain.RegisterResponse
	err := c.uploads.Do(ctx, func() error {
		_, err := c.do(ctx, call{
			op: "Register", method: http.MethodPost, path: "/api/auth/register",
			result: &out, resource: "registration",
			prepare: multipart(p.Fields, p.Files),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckoutSession opens a payment checkout for a new account.
func (c *Client) CreateCheckoutSession(ctx context.Context, token string, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	var out domain.CheckoutSession
	_, err := c.do(ctx, call{
		op: "CreateCheckoutSession", method: http.MethodPost, path: "/api/payments/create-checkout-session",
		token: token, body: req, result: &out, resource: "checkout",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func multipart(fields map[string]string, files []form.Upload) func(*resty.Request) {
	return func(r *resty.Request) {
		if len(fields) > 0 {
			r.SetMultipartFormData(fields)
		}
		for _, f := range files {
			r.SetMultipartField(f.Field, f.Filename, f.ContentType, bytes.NewReader(f.Content))
		}
	}
}
