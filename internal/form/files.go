package form

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// Upload ceilings.
const (
	MaxDocumentSize int64 = 10 << 20
	MaxImageSize    int64 = 5 << 20
)

var (
	documentTypes = []string{"application/pdf"}
	imageTypes    = []string{"image/jpeg", "image/png"}
)

// Upload is a file selected for attachment to a form.
type Upload = domain.Upload

// CheckDocument accepts PDFs up to MaxDocumentSize.
func CheckDocument(u *Upload) error {
	return check(u, documentTypes, MaxDocumentSize)
}

// CheckImage accepts JPEG or PNG images up to MaxImageSize.
func CheckImage(u *Upload) error {
	return check(u, imageTypes, MaxImageSize)
}

func check(u *Upload, allowed []string, max int64) error {
	if u == nil || u.Size == 0 {
		return &domain.ErrFileConstraint{Field: fieldOf(u), Reason: "file is empty"}
	}
	if u.Size > max {
		return &domain.ErrFileConstraint{
			Field:  u.Field,
			Reason: fmt.Sprintf("file is %s, limit is %s", humanSize(u.Size), humanSize(max)),
		}
	}
	declared := baseType(u.ContentType)
	if !contains(allowed, declared) {
		return &domain.ErrFileConstraint{
			Field:  u.Field,
			Reason: fmt.Sprintf("type %q not allowed, expected %s", declared, strings.Join(allowed, " or ")),
		}
	}
	if len(u.Content) > 0 {
		sniffed := baseType(http.DetectContentType(u.Content))
		if !contains(allowed, sniffed) {
			return &domain.ErrFileConstraint{
				Field:  u.Field,
				Reason: fmt.Sprintf("content is %q, not %s", sniffed, declared),
			}
		}
	}
	return nil
}

// ReadUpload loads a multipart file into an Upload without reading past
// limit+1 bytes, so oversize files are rejected without buffering them whole.
func ReadUpload(field string, fh *multipart.FileHeader, limit int64) (*Upload, error) {
	u := &Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if fh.Size > limit {
		return u, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	u.Content = content
	u.Size = int64(len(content))
	return u, nil
}

func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func fieldOf(u *Upload) string {
	if u == nil {
		return ""
	}
	return u.Field
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n >= mb {
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	}
	return fmt.Sprintf("%dKB", n>>10)
}
