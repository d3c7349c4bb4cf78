package attachments

import (
	"bytes"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/ledongthuc/pdf"
)

// ReportContentType is the only content type accepted for reports.
const ReportContentType = "application/pdf"

var allowedMedia = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/mpeg":      {},
	"video/quicktime": {},
}

// AllowedMediaType reports whether contentType may be uploaded as media.
func AllowedMediaType(contentType string) bool {
	_, ok := allowedMedia[normalizeContentType(contentType)]
	return ok
}

func normalizeContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// ValidatePDF checks that data parses as a PDF document with at least one page.
func ValidatePDF(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.Validationf("report is not a valid PDF: %v", r)
		}
	}()

	r, perr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if perr != nil {
		return common.Validationf("report is not a valid PDF: %v", perr)
	}
	if r.NumPage() < 1 {
		return common.Validationf("report has no pages")
	}
	return nil
}

func reportFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "report.pdf"
	}
	return name
}

func invalidContentType(contentType string) error {
	return fmt.Errorf("%w: %q", common.ErrInvalidContentType, contentType)
}
