package reporting

import (
	"context"
	"fmt"

	appreporting "github.com/studyhall/backend/internal/application/reporting"
)

// StubPDFRenderer is a placeholder implementation of the PDF renderer seam.
// It returns a tiny valid one-page PDF regardless of input.
// Use this for development until a Chrome instance is configured.
type StubPDFRenderer struct{}

// NewStubPDFRenderer creates a new StubPDFRenderer
func NewStubPDFRenderer() *StubPDFRenderer {
	return &StubPDFRenderer{}
}

// Ensure StubPDFRenderer implements the application seam
var _ appreporting.PDFRenderer = (*StubPDFRenderer)(nil)

// RenderHTML returns a minimal placeholder PDF carrying only the title
func (s *StubPDFRenderer) RenderHTML(ctx context.Context, title, html string) ([]byte, error) {
	if html == "" {
		return nil, fmt.Errorf("render: HTML content is empty")
	}

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", title)
	pdf := fmt.Sprintf(`%%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj
4 0 obj << /Length %d >> stream
%s
endstream endobj
5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj
trailer << /Root 1 0 R >>
%%%%EOF
`, len(content), content)

	return []byte(pdf), nil
}
