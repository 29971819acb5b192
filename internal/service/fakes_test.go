package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

// fakeBackend implements every port. Errors are injected per call name.
type fakeBackend struct {
	mu sync.Mutex

	errs  map[string]error
	calls map[string]int
	query map[string]url.Values

	users       []domain.User
	clients     []domain.ClientRecord
	performance []domain.AgentPerformance
	invitations []domain.Invitation
	company     *domain.Company
	loginUser   domain.User

	sentClient     *domain.ClientRecord
	sentInvitation *domain.CreateInvitationRequest
	sentStatus     *bool
	registered     []domain.RegisterPayload
	checkouts      []domain.CheckoutRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{errs: map[string]error{}, calls: map[string]int{}, query: map[string]url.Values{}}
}

func (f *fakeBackend) hit(name string, q url.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if q != nil {
		f.query[name] = q
	}
	return f.errs[name]
}

func (f *fakeBackend) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) lastQuery(name string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query[name]
}

func (f *fakeBackend) Login(_ context.Context, _ domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := f.hit("Login", nil); err != nil {
		return nil, err
	}
	return &domain.LoginResponse{Token: "upstream-token", User: f.loginUser}, nil
}

func (f *fakeBackend) Logout(context.Context, string) error { return f.hit("Logout", nil) }

func (f *fakeBackend) ForgotPassword(context.Context, domain.ForgotPasswordRequest) error {
	return f.hit("ForgotPassword", nil)
}

func (f *fakeBackend) ResetPassword(context.Context, domain.ResetPasswordRequest) error {
	return f.hit("ResetPassword", nil)
}

func (f *fakeBackend) Me(context.Context, string) (*domain.User, error) {
	if err := f.hit("Me", nil); err != nil {
		return nil, err
	}
	u := f.loginUser
	return &u, nil
}

func (f *fakeBackend) UpdateMe(_ context.Context, _ string, req domain.UpdateProfileRequest) (*domain.User, error) {
	if err := f.hit("UpdateMe", nil); err != nil {
		return nil, err
	}
	u := f.loginUser
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Title != "" {
		u.Title = req.Title
	}
	return &u, nil
}

func (f *fakeBackend) UploadProfilePicture(context.Context, string, form.Upload) (*domain.User, error) {
	if err := f.hit("UploadProfilePicture", nil); err != nil {
		return nil, err
	}
	u := f.loginUser
	u.ProfilePictureURL = "https://cdn.example/p.png"
	return &u, nil
}

func (f *fakeBackend) Register(_ context.Context, p domain.RegisterPayload) (*domain.RegisterResponse, error) {
	f.mu.Lock()
	f.registered = append(f.registered, p)
	f.mu.Unlock()
	if err := f.hit("Register", nil); err != nil {
		return nil, err
	}
	return &domain.RegisterResponse{UserID: "new-user", Email: p.Fields["email"]}, nil
}

func (f *fakeBackend) CreateCheckoutSession(_ context.Context, _ string, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	f.checkouts = append(f.checkouts, req)
	f.mu.Unlock()
	if err := f.hit("CreateCheckoutSession", nil); err != nil {
		return nil, err
	}
	return &domain.CheckoutSession{URL: "https://pay.example/cs_1", SessionID: "cs_1"}, nil
}

func (f *fakeBackend) ListUsers(_ context.Context, _ string, q url.Values) ([]domain.User, error) {
	if err := f.hit("ListUsers", q); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeBackend) GetUser(_ context.Context, _ string, id string) (*domain.User, error) {
	if err := f.hit("GetUser", nil); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: id}
}

func (f *fakeBackend) SetUserStatus(_ context.Context, _ string, id string, active bool) (*domain.User, error) {
	if err := f.hit("SetUserStatus", nil); err != nil {
		return nil, err
	}
	f.sentStatus = &active
	return &domain.User{ID: id, IsActive: active}, nil
}

func (f *fakeBackend) DeleteUser(context.Context, string, string) error {
	return f.hit("DeleteUser", nil)
}

func (f *fakeBackend) ListClients(_ context.Context, _ string, q url.Values) ([]domain.ClientRecord, error) {
	if err := f.hit("ListClients", q); err != nil {
		return nil, err
	}
	return f.clients, nil
}

func (f *fakeBackend) GetClient(_ context.Context, _ string, id string) (*domain.ClientRecord, error) {
	if err := f.hit("GetClient", nil); err != nil {
		return nil, err
	}
	return &domain.ClientRecord{ID: id, CustomerName: "Jane Buyer"}, nil
}

func (f *fakeBackend) CreateClient(_ context.Context, _ string, rec domain.ClientRecord) (*domain.ClientRecord, error) {
	if err := f.hit("CreateClient", nil); err != nil {
		return nil, err
	}
	f.sentClient = &rec
	rec.ID = "c-new"
	return &rec, nil
}

func (f *fakeBackend) UpdateClient(_ context.Context, _ string, _ string, rec domain.ClientRecord) (*domain.ClientRecord, error) {
	if err := f.hit("UpdateClient", nil); err != nil {
		return nil, err
	}
	f.sentClient = &rec
	return &rec, nil
}

func (f *fakeBackend) DeleteClient(context.Context, string, string) error {
	return f.hit("DeleteClient", nil)
}

func (f *fakeBackend) ClientPDF(_ context.Context, _ string, id string) (*domain.Document, error) {
	if err := f.hit("ClientPDF", nil); err != nil {
		return nil, err
	}
	return &domain.Document{ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, nil
}

func (f *fakeBackend) CompanyBySubdomain(_ context.Context, slug string) (*domain.Company, error) {
	if err := f.hit("CompanyBySubdomain", nil); err != nil {
		return nil, err
	}
	if f.company == nil || f.company.Subdomain != slug {
		return nil, &domain.ErrNotFound{Resource: "company", ID: slug}
	}
	c := *f.company
	return &c, nil
}

func (f *fakeBackend) ListCompanies(context.Context, string) ([]domain.Company, error) {
	if err := f.hit("ListCompanies", nil); err != nil {
		return nil, err
	}
	if f.company == nil {
		return nil, nil
	}
	return []domain.Company{*f.company}, nil
}

func (f *fakeBackend) CreateCompany(_ context.Context, _ string, req domain.CreateCompanyRequest) (*domain.Company, error) {
	if err := f.hit("CreateCompany", nil); err != nil {
		return nil, err
	}
	return &domain.Company{ID: "co-new", CompanyName: req.CompanyName, Subdomain: req.Subdomain, IsActive: true}, nil
}

func (f *fakeBackend) UploadCompanyLogo(_ context.Context, _ string, id string, _ form.Upload) (*domain.Company, error) {
	if err := f.hit("UploadCompanyLogo", nil); err != nil {
		return nil, err
	}
	return &domain.Company{ID: id, Subdomain: "acme", LogoURL: "https://cdn.example/logo.png"}, nil
}

func (f *fakeBackend) ListInvitations(_ context.Context, _ string, q url.Values) ([]domain.Invitation, error) {
	if err := f.hit("ListInvitations", q); err != nil {
		return nil, err
	}
	var out []domain.Invitation
	for _, inv := range f.invitations {
		if c := q.Get("company_id"); c == "" || inv.CompanyID == c {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateInvitation(_ context.Context, _ string, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	if err := f.hit("CreateInvitation", nil); err != nil {
		return nil, err
	}
	f.sentInvitation = &req
	return &domain.Invitation{ID: "inv-1", Email: req.Email, Role: req.Role, CompanyID: req.CompanyID, SendCount: 1}, nil
}

func (f *fakeBackend) ResendInvitation(_ context.Context, _ string, id string) (*domain.Invitation, error) {
	if err := f.hit("ResendInvitation", nil); err != nil {
		return nil, err
	}
	return &domain.Invitation{ID: id, SendCount: 2}, nil
}

func (f *fakeBackend) AcceptInvitation(context.Context, domain.AcceptInvitationRequest) (*domain.RegisterResponse, error) {
	if err := f.hit("AcceptInvitation", nil); err != nil {
		return nil, err
	}
	return &domain.RegisterResponse{UserID: "invited-user"}, nil
}

func (f *fakeBackend) AgentPerformance(_ context.Context, _ string, q url.Values) ([]domain.AgentPerformance, error) {
	if err := f.hit("AgentPerformance", q); err != nil {
		return nil, err
	}
	return f.performance, nil
}

// fakeBranding records invalidations and resolves everything to one brand.
type fakeBranding struct {
	mu          sync.Mutex
	brand       domain.Branding
	invalidated []string
}

func (b *fakeBranding) Resolve(context.Context, string) domain.Branding {
	return b.brand
}

func (b *fakeBranding) Invalidate(slug string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidated = append(b.invalidated, slug)
}

// --- Helpers ---

var (
	globalAdmin  = domain.User{ID: "g-1", Role: domain.RoleGlobalAdmin, IsActive: true}
	companyAdmin = domain.User{ID: "ca-1", Role: domain.RoleCompanyAdmin, CompanyID: "co-1", IsActive: true}
	manager      = domain.User{ID: "m-1", Role: domain.RoleManager, CompanyID: "co-1", IsActive: true}
	agent        = domain.User{ID: "a-1", Role: domain.RoleAgent, CompanyID: "co-1", IsActive: true}
)

func loggedIn(t *testing.T, u domain.User) *session.Store {
	t.Helper()
	st := session.NewStore(nil, zap.NewNop(), session.WithID("sid-"+u.ID))
	require.NoError(t, st.Login(context.Background(), u, "tok-"+u.ID))
	return st
}

func newFetcher(t *testing.T, fb *fakeBackend) *service.Fetcher {
	t.Helper()
	views := service.Views{
		Users:   dataview.NewRegistry[domain.User]("users", time.Minute),
		Clients: dataview.NewRegistry[domain.ClientForm]("clients", time.Minute),
		Agents:  dataview.NewRegistry[domain.AgentPerformance]("agents", time.Minute),
	}
	t.Cleanup(func() {
		views.Users.Close()
		views.Clients.Close()
		views.Agents.Close()
	})
	return service.NewFetcher(fb, fb, fb, views, observability.NewMetrics(), zap.NewNop())
}

func pdf(field string) form.Upload {
	content := []byte("%PDF-1.4\n%test document\n")
	return form.Upload{
		Field:       field,
		Filename:    field + ".pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     content,
	}
}
