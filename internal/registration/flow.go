// Package registration drives the multi-step signup forms:
//
//	BasicInfo → Documents → Submitting → Success | Failure
//
// Moving from BasicInfo to Documents only validates input. Submitting
// issues the network calls in order and stops at the first failure,
// reporting which step failed. After a Failure the next action returns
// the flow to BasicInfo (the server rejected the details) or Documents
// (anything else).
//
// Agent signups and invitation signups share this flow, the field names
// and the password policy; they differ only in what each step requires
// and what Submit calls.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/signature"
)

// State of a flow.
type State int

const (
	BasicInfo State = iota
	Documents
	Submitting
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case BasicInfo:
		return "basic_info"
	case Documents:
		return "documents"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Step names reported in domain.ErrStepFailed.
const (
	StepRegistration = "registration"
	StepCheckout     = "checkout"
	StepInvitation   = "invitation acceptance"
)

// Variant selects what a flow requires and submits.
type Variant int

const (
	// AgentSignup is the self-service path: plan, signed agreements and a
	// payment checkout.
	AgentSignup Variant = iota
	// InviteSignup accepts an invitation sent by an admin or manager.
	InviteSignup
)

// Info is the BasicInfo step.
type Info struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	CompanyName     string `json:"company_name,omitempty"`
	LicenseNumber   string `json:"license_number,omitempty"`
	Plan            string `json:"plan,omitempty"`
}

// Flow is one registration in progress. It is not safe for concurrent use;
// one flow belongs to one form.
type Flow struct {
	variant  Variant
	state    State
	returnTo State

	info      Info
	documents map[string]form.Upload
	signature string
	initials  string
	terms     form.Terms

	registrar   port.Registrar
	invitations port.InvitationStore
	inviteToken string

	registered *domain.RegisterResponse
	result     *domain.RegistrationResult
	lastErr    error
}

// RequiredDocuments lists the agreements an agent signup must attach.
var RequiredDocuments = []string{
	domain.FieldBuyerBrokerAgreement,
	domain.FieldExclusiveEmploymentAgreement,
}

// NewAgentSignup starts a self-service signup. defaultPlan is used when the
// form does not pick one.
func NewAgentSignup(registrar port.Registrar, defaultPlan string) *Flow {
	return &Flow{
		variant:   AgentSignup,
		registrar: registrar,
		info:      Info{Plan: defaultPlan},
		documents: map[string]form.Upload{},
	}
}

// NewInviteSignup starts accepting the invitation identified by token.
func NewInviteSignup(invitations port.InvitationStore, token string) *Flow {
	return &Flow{
		variant:     InviteSignup,
		invitations: invitations,
		inviteToken: strings.TrimSpace(token),
		documents:   map[string]form.Upload{},
	}
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// Variant returns the flow kind.
func (f *Flow) Variant() Variant { return f.variant }

// LastError is the error of the most recent failed Submit, if any.
func (f *Flow) LastError() error { return f.lastErr }

// Result is set once the flow reaches Success.
func (f *Flow) Result() *domain.RegistrationResult { return f.result }

// Terms exposes the terms acceptance tracker of the Documents step.
func (f *Flow) Terms() *form.Terms { return &f.terms }

func (f *Flow) resume() {
	if f.state == Failure {
		f.state = f.returnTo
	}
}

func (f *Flow) expect(states ...State) error {
	for _, s := range states {
		if f.state == s {
			return nil
		}
	}
	return &domain.ErrValidation{Field: "step", Message: fmt.Sprintf("not allowed while in %s", f.state)}
}

// SubmitBasicInfo validates the first step and advances to Documents. No
// network call is made.
func (f *Flow) SubmitBasicInfo(info Info) error {
	f.resume()
	if err := f.expect(BasicInfo, Documents); err != nil {
		return err
	}
	if info.Plan == "" {
		info.Plan = f.info.Plan
	}
	if err := f.validateInfo(info); err != nil {
		return err
	}
	f.info = info
	f.state = Documents
	return nil
}

func (f *Flow) validateInfo(info Info) error {
	errs := []error{form.Required("name", info.Name)}
	if f.variant == AgentSignup {
		errs = append(errs,
			form.ValidateEmail("email", info.Email),
			form.ValidatePhone("phone", info.Phone),
		)
	} else {
		if f.inviteToken == "" {
			errs = append(errs, &domain.ErrValidation{Field: "token", Message: "invitation link is incomplete"})
		}
		if strings.TrimSpace(info.Email) != "" {
			errs = append(errs, form.ValidateEmail("email", info.Email))
		}
		if strings.TrimSpace(info.Phone) != "" {
			errs = append(errs, form.ValidatePhone("phone", info.Phone))
		}
	}
	errs = append(errs, form.ValidatePasswordPair(info.Password, info.ConfirmPassword))
	if f.variant == AgentSignup {
		errs = append(errs, form.Required("plan", info.Plan))
	}
	return form.First(errs...)
}

// Back returns from Documents to BasicInfo, keeping everything entered.
func (f *Flow) Back() error {
	f.resume()
	if err := f.expect(Documents); err != nil {
		return err
	}
	f.state = BasicInfo
	return nil
}

// AttachDocument adds an agreement PDF. Wrong type or oversize files are
// rejected here and never attached.
func (f *Flow) AttachDocument(u form.Upload) error {
	f.resume()
	if err := f.expect(Documents); err != nil {
		return err
	}
	if !contains(RequiredDocuments, u.Field) {
		return &domain.ErrFileConstraint{Field: u.Field, Reason: "unexpected document"}
	}
	if err := form.CheckDocument(&u); err != nil {
		return err
	}
	f.documents[u.Field] = u
	return nil
}

// SetSignature attaches the signature as an inline PNG data URL. An empty
// value clears it.
func (f *Flow) SetSignature(dataURL string) error {
	v, err := f.image("signature", dataURL)
	if err != nil {
		return err
	}
	f.signature = v
	return nil
}

// SetInitials attaches the buyer initials, like SetSignature.
func (f *Flow) SetInitials(dataURL string) error {
	v, err := f.image("initials", dataURL)
	if err != nil {
		return err
	}
	f.initials = v
	return nil
}

// SetSignaturePad exports pad as the signature. An empty pad clears it.
func (f *Flow) SetSignaturePad(p *signature.Pad) error {
	v, _ := p.Export()
	return f.SetSignature(v)
}

// SetInitialsPad exports pad as the initials.
func (f *Flow) SetInitialsPad(p *signature.Pad) error {
	v, _ := p.Export()
	return f.SetInitials(v)
}

func (f *Flow) image(field, dataURL string) (string, error) {
	f.resume()
	if err := f.expect(Documents); err != nil {
		return "", err
	}
	if dataURL == "" {
		return "", nil
	}
	if _, err := signature.DecodeDataURL(dataURL); err != nil {
		return "", &domain.ErrValidation{Field: field, Message: err.Error()}
	}
	return dataURL, nil
}

func (f *Flow) checkDocuments() error {
	if f.variant == AgentSignup {
		if f.signature == "" {
			return &domain.ErrValidation{Field: "signature", Message: "please sign before submitting"}
		}
		if f.initials == "" {
			return &domain.ErrValidation{Field: "initials", Message: "please add your initials before submitting"}
		}
		for _, field := range RequiredDocuments {
			if _, ok := f.documents[field]; !ok {
				return &domain.ErrFileConstraint{Field: field, Reason: "a PDF is required"}
			}
		}
	}
	if !f.terms.Accepted() {
		return &domain.ErrValidation{Field: "terms", Message: "read and accept the terms to continue"}
	}
	return nil
}

// Submit sends the registration. Guard failures leave the flow in
// Documents. Network failures move it to Failure and are returned as
// *domain.ErrStepFailed naming the step.
func (f *Flow) Submit(ctx context.Context) (*domain.RegistrationResult, error) {
	f.resume()
	if err := f.expect(Documents); err != nil {
		return nil, err
	}
	if err := f.checkDocuments(); err != nil {
		return nil, err
	}

	f.state = Submitting
	f.lastErr = nil

	var (
		res *domain.RegistrationResult
		err error
	)
	if f.variant == InviteSignup {
		res, err = f.acceptInvitation(ctx)
	} else {
		res, err = f.registerAndCheckout(ctx)
	}
	if err != nil {
		f.fail(err)
		return nil, err
	}
	f.state = Success
	f.result = res
	return res, nil
}

// RetryCheckout repeats only the checkout step after the account was
// created but checkout failed.
func (f *Flow) RetryCheckout(ctx context.Context) (*domain.RegistrationResult, error) {
	f.resume()
	if f.registered == nil || f.variant != AgentSignup {
		return nil, &domain.ErrValidation{Field: "step", Message: "nothing to retry"}
	}
	f.state = Submitting
	res, err := f.checkout(ctx, f.registered)
	if err != nil {
		f.fail(err)
		return nil, err
	}
	f.state = Success
	f.result = res
	return res, nil
}

func (f *Flow) registerAndCheckout(ctx context.Context) (*domain.RegistrationResult, error) {
	if f.registered == nil {
		resp, err := f.registrar.Register(ctx, f.payload())
		if err != nil {
			return nil, &domain.ErrStepFailed{Step: StepRegistration, Err: err}
		}
		f.registered = resp
	}
	return f.checkout(ctx, f.registered)
}

func (f *Flow) checkout(ctx context.Context, reg *domain.RegisterResponse) (*domain.RegistrationResult, error) {
	email := reg.Email
	if email == "" {
		email = strings.TrimSpace(f.info.Email)
	}
	sess, err := f.registrar.CreateCheckoutSession(ctx, "", domain.CheckoutRequest{
		PriceID: f.info.Plan,
		UserID:  reg.UserID,
		Email:   email,
	})
	if err != nil {
		return nil, &domain.ErrStepFailed{Step: StepCheckout, Err: err}
	}
	if sess.URL == "" {
		return nil, &domain.ErrStepFailed{Step: StepCheckout, Err: errors.New("no checkout url returned")}
	}
	return &domain.RegistrationResult{UserID: reg.UserID, CheckoutURL: sess.URL}, nil
}

func (f *Flow) acceptInvitation(ctx context.Context) (*domain.RegistrationResult, error) {
	resp, err := f.invitations.AcceptInvitation(ctx, domain.AcceptInvitationRequest{
		Token:    f.inviteToken,
		Name:     strings.TrimSpace(f.info.Name),
		Password: f.info.Password,
		Phone:    strings.TrimSpace(f.info.Phone),
	})
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			err = &domain.ErrExpired{Resource: "invitation"}
		}
		return nil, &domain.ErrStepFailed{Step: StepInvitation, Err: err}
	}
	return &domain.RegistrationResult{UserID: resp.UserID, Redirect: "/login"}, nil
}

func (f *Flow) fail(err error) {
	f.lastErr = err
	f.state = Failure
	f.returnTo = Documents

	var (
		invalid  *domain.ErrValidation
		conflict *domain.ErrConflict
	)
	if f.registered == nil && (errors.As(err, &invalid) || errors.As(err, &conflict)) {
		f.returnTo = BasicInfo
	}
}

// payload builds the single multipart register request.
func (f *Flow) payload() domain.RegisterPayload {
	fields := map[string]string{
		"name":           strings.TrimSpace(f.info.Name),
		"email":          strings.TrimSpace(f.info.Email),
		"phone":          strings.TrimSpace(f.info.Phone),
		"password":       f.info.Password,
		"plan":           f.info.Plan,
		"signature":      f.signature,
		"initials":       f.initials,
		"terms_accepted": "true",
	}
	if v := strings.TrimSpace(f.info.CompanyName); v != "" {
		fields["company_name"] = v
	}
	if v := strings.TrimSpace(f.info.LicenseNumber); v != "" {
		fields["license_number"] = v
	}
	files := make([]form.Upload, 0, len(f.documents))
	for _, field := range RequiredDocuments {
		if u, ok := f.documents[field]; ok {
			files = append(files, u)
		}
	}
	return domain.RegisterPayload{Fields: fields, Files: files}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
