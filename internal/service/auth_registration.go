package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/realty-portal-bfa/internal/registration"
	"github.com/boddenberg/realty-portal-bfa/internal/signature"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Canvas sizes used when a client sends raw strokes instead of an image.
const (
	signatureCanvasWidth  = 600
	signatureCanvasHeight = 200
	initialsCanvasWidth   = 300
	initialsCanvasHeight  = 150

	pendingRegistrationTTL = 30 * time.Minute
)

// SignupRequest is a whole registration form posted at once. Signature and
// Initials are PNG data URLs; the *Strokes fields are the alternative for
// clients that only capture pen positions.
type SignupRequest struct {
	Info             registration.Info
	Documents        []form.Upload
	Signature        string
	Initials         string
	SignatureStrokes string
	InitialsStrokes  string
	TermsAccepted    bool
}

// InviteAcceptRequest is the invitation acceptance form.
type InviteAcceptRequest struct {
	Token         string
	Info          registration.Info
	TermsAccepted bool
}

// SignupFailure carries the failing step and, when the account already
// exists, the id under which checkout can be retried.
type SignupFailure struct {
	PendingID string
	Step      string
	Err       error
}

func (e *SignupFailure) Error() string {
	return e.Err.Error()
}

func (e *SignupFailure) Unwrap() error {
	return e.Err
}

type pendingSignups struct {
	mu    sync.Mutex
	flows *cache.InMemory[*registration.Flow]
}

func newPendingSignups() *pendingSignups {
	return &pendingSignups{flows: cache.New[*registration.Flow](pendingRegistrationTTL)}
}

func (p *pendingSignups) put(f *registration.Flow) string {
	id := uuid.NewString()
	p.flows.Set(id, f)
	return id
}

// take removes and returns the flow so two retries never run it at once.
func (p *pendingSignups) take(id string) (*registration.Flow, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.flows.Get(id)
	if ok {
		p.flows.Delete(id)
	}
	return f, ok
}

// Register (POST /api/auth/register)
//
// Drives an agent signup through every step in one request. When checkout
// fails after the account was created, the flow is parked so
// RetryCheckout can finish it without registering twice.
func (s *AuthService) Register(ctx context.Context, req SignupRequest) (*domain.RegistrationResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	flow := registration.NewAgentSignup(s.registrar, s.defaultPlan)
	if err := flow.SubmitBasicInfo(req.Info); err != nil {
		return nil, err
	}
	for _, doc := range req.Documents {
		if err := flow.AttachDocument(doc); err != nil {
			return nil, err
		}
	}

	sig, err := pickImage("signature", req.Signature, req.SignatureStrokes, signatureCanvasWidth, signatureCanvasHeight)
	if err != nil {
		return nil, err
	}
	if err := flow.SetSignature(sig); err != nil {
		return nil, err
	}
	initials, err := pickImage("initials", req.Initials, req.InitialsStrokes, initialsCanvasWidth, initialsCanvasHeight)
	if err != nil {
		return nil, err
	}
	if err := flow.SetInitials(initials); err != nil {
		return nil, err
	}
	if req.TermsAccepted {
		flow.Terms().Agree()
	}

	res, err := flow.Submit(ctx)
	if err != nil {
		return nil, s.signupFailure(flow, err)
	}
	s.logger.Info("registration completed", zap.String("user_id", res.UserID))
	return res, nil
}

// RetryCheckout (POST /api/auth/register/{id}/checkout)
func (s *AuthService) RetryCheckout(ctx context.Context, pendingID string) (*domain.RegistrationResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.RetryCheckout")
	defer span.End()

	flow, ok := s.pending.take(pendingID)
	if !ok {
		return nil, &domain.ErrExpired{Resource: "registration"}
	}
	res, err := flow.RetryCheckout(ctx)
	if err != nil {
		return nil, s.signupFailure(flow, err)
	}
	return res, nil
}

// AcceptInvitation (POST /api/invitations/accept)
//
// Runs the invitation variant of the signup: no documents, no payment.
func (s *AuthService) AcceptInvitation(ctx context.Context, req InviteAcceptRequest) (*domain.RegistrationResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.AcceptInvitation")
	defer span.End()

	flow := registration.NewInviteSignup(s.invitations, req.Token)
	if err := flow.SubmitBasicInfo(req.Info); err != nil {
		return nil, err
	}
	if req.TermsAccepted {
		flow.Terms().Agree()
	}
	res, err := flow.Submit(ctx)
	if err != nil {
		var step *domain.ErrStepFailed
		if errors.As(err, &step) {
			return nil, fmt.Errorf("accept invitation: %w", step.Err)
		}
		return nil, err
	}
	return res, nil
}

// signupFailure parks flows whose account exists so checkout can be retried.
func (s *AuthService) signupFailure(flow *registration.Flow, err error) error {
	var step *domain.ErrStepFailed
	if !errors.As(err, &step) {
		return err
	}
	failure := &SignupFailure{Step: step.Step, Err: err}
	if step.Step == registration.StepCheckout {
		failure.PendingID = s.pending.put(flow)
	}
	s.logger.Warn("registration step failed",
		zap.String("step", step.Step),
		zap.Bool("retryable", failure.PendingID != ""),
		zap.Error(step.Err),
	)
	return failure
}

func pickImage(field, dataURL, strokes string, width, height int) (string, error) {
	if dataURL != "" || strokes == "" {
		return dataURL, nil
	}
	parsed, err := signature.ParseStrokes(strokes)
	if err != nil {
		return "", &domain.ErrValidation{Field: field, Message: "could not read the drawing"}
	}
	out, _ := signature.Render(width, height, parsed)
	return out, nil
}
