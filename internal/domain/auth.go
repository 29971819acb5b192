package domain

// ============================================================
// Auth Request / Response types (matches frontend API contract)
// ============================================================

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what the backend answers to a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SessionResponse is what the BFA answers after login: the BFA session
// token (also set as a cookie) and the user it carries.
type SessionResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
	Redirect     string `json:"redirect"`
}

// LogoutResponse always carries the login route to navigate to.
type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// ForgotPasswordRequest is the body for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body for POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RegisterResponse is the backend answer to POST /api/auth/register.
type RegisterResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// CheckoutRequest is the body for POST /api/payments/create-checkout-session.
type CheckoutRequest struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

// CheckoutSession is the payment-processor session to redirect to.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// RegistrationResult is returned by the BFA after a completed registration.
// CheckoutURL is navigated to with a full page redirect.
type RegistrationResult struct {
	UserID      string `json:"userId"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// Multipart file fields of POST /api/auth/register.
const (
	FieldBuyerBrokerAgreement         = "buyer_broker_agreement"
	FieldExclusiveEmploymentAgreement = "exclusive_employment_agreement"
)

// Upload is a file selected for attachment to a form.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// RegisterPayload is one multipart registration: text fields (including
// the base64 signature and initials) plus document files.
type RegisterPayload struct {
	Fields map[string]string
	Files  []Upload
}
