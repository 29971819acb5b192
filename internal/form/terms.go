package form

// TermsScrollThreshold is how close (in pixels) to the bottom of the terms
// content the reader must scroll before acceptance is enabled.
const TermsScrollThreshold = 10.0

// Terms tracks acceptance of the terms of service. It becomes accepted
// when the content is scrolled to within TermsScrollThreshold of its
// bottom or on an explicit Agree. Once accepted it stays accepted.
type Terms struct {
	accepted bool
}

// OnScroll records a scroll position of the terms content.
func (t *Terms) OnScroll(scrollTop, clientHeight, scrollHeight float64) {
	if scrollHeight <= 0 {
		return
	}
	if scrollHeight-(scrollTop+clientHeight) <= TermsScrollThreshold {
		t.accepted = true
	}
}

// Agree is the explicit "I Agree" action.
func (t *Terms) Agree() {
	t.accepted = true
}

// Accepted reports whether the terms have been accepted.
func (t *Terms) Accepted() bool {
	return t.accepted
}
