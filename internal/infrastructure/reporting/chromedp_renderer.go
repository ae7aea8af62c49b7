// Package reporting renders usage reports to PDF through headless Chrome.
package reporting

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	appreporting "github.com/studyhall/backend/internal/application/reporting"
)

const (
	defaultRenderTimeout = 30 * time.Second

	// A4 in inches; Chrome's print API works in inches
	a4WidthIn  = 8.27
	a4HeightIn = 11.69

	marginIn = 0.5
)

// Ensure ChromedpRenderer implements the application seam
var _ appreporting.PDFRenderer = (*ChromedpRenderer)(nil)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// RenderTimeout bounds a single render
	RenderTimeout time.Duration
	// RemoteURL points at a remote Chrome instance; empty launches one locally
	RemoteURL string
	// NoSandbox runs Chrome without its sandbox (required under Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer renders report HTML to PDF using the Chrome DevTools
// Protocol. Reports are A4 portrait with a page-number footer; the renderer
// holds one allocator and opens a fresh browser context per render.
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a new chromedp-based report renderer
func NewChromedpRenderer(config ChromedpConfig) *ChromedpRenderer {
	if config.RenderTimeout == 0 {
		config.RenderTimeout = defaultRenderTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		config: config,
		logger: logger,
	}
	r.initAllocator()
	return r
}

func (r *ChromedpRenderer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// RenderHTML converts an HTML document to an A4 PDF
func (r *ChromedpRenderer) RenderHTML(ctx context.Context, title, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("render: HTML content is empty")
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.RenderTimeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	var pdfData []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(marginIn).
				WithMarginRight(marginIn).
				WithMarginBottom(marginIn).
				WithMarginLeft(marginIn).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<span></span>`).
				WithFooterTemplate(footerTemplate(title)).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("render: timed out after %v: %w", r.config.RenderTimeout, err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, fmt.Errorf("render: chromedp execution failed: %w", err)
	}
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("render: generated PDF is empty")
	}

	r.logger.Info("Report PDF rendered",
		zap.String("title", title),
		zap.Int("bytes", len(pdfData)),
		zap.Duration("duration", time.Since(start)))

	return pdfData, nil
}

// Close releases the Chrome allocator
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func footerTemplate(title string) string {
	return fmt.Sprintf(`<div style="font-size:8px; width:100%%; padding:0 0.5in; display:flex; justify-content:space-between; color:#777;">
<span>%s</span>
<span><span class="pageNumber"></span> / <span class="totalPages"></span></span>
</div>`, template.HTMLEscapeString(title))
}
