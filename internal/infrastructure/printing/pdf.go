package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/drymix/erp/internal/domain/printing"
	infraconfig "github.com/drymix/erp/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultChromeTimeout = 30 * time.Second

// marginMM is applied on every side of the page
const marginMM = 12.0

// ChromePDF converts HTML to PDF with a headless Chrome, either launched
// from ChromePath or reached at RemoteURL.
type ChromePDF struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChromePDF prepares the browser allocator. Chrome itself starts on the
// first render.
func NewChromePDF(cfg infraconfig.PrintingConfig, logger *zap.Logger) *ChromePDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	r := &ChromePDF{timeout: timeout, logger: logger}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// PDF prints html on a page of the given layout
func (r *ChromePDF) PDF(ctx context.Context, html []byte, layout printing.Layout) ([]byte, error) {
	if len(html) == 0 {
		return nil, errors.New("html is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()
	// stop the tab when the request is done
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	params := printParams(layout)
	var out []byte
	start := time.Now()
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			out = data
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pdf rendering timed out after %v: %w", r.timeout, ctx.Err())
		}
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("chrome returned an empty pdf")
	}
	r.logger.Debug("pdf rendered",
		zap.Int("bytes", len(out)),
		zap.String("paper_size", string(layout.PaperSize)),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

// Close shuts the browser down
func (r *ChromePDF) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func printParams(layout printing.Layout) *page.PrintToPDFParams {
	w, h := layout.PaperSize.Dimensions()
	m := mmToInches(marginMM)
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(mmToInches(w)).
		WithPaperHeight(mmToInches(h)).
		WithLandscape(layout.Orientation == printing.Landscape).
		WithMarginTop(m).
		WithMarginBottom(m).
		WithMarginLeft(m).
		WithMarginRight(m).
		WithPreferCSSPageSize(false)
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
