package chrome

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
)

var lengthPattern = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*([a-zA-Z]*)\s*$`)

// parseLengthInches converts a CSS length to inches. A bare number is pixels.
func parseLengthInches(value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	m := lengthPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid length %q", value)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", value, err)
	}

	switch strings.ToLower(m[2]) {
	case "", "px":
		return amount / 96.0, nil
	case "in":
		return amount, nil
	case "cm":
		return amount / 2.54, nil
	case "mm":
		return amount / 25.4, nil
	case "pt":
		return amount / 72.0, nil
	default:
		return 0, fmt.Errorf("unsupported length unit %q in %q", m[2], value)
	}
}

// buildPrintParams maps the effective configuration onto Page.printToPDF.
func buildPrintParams(opts domain.RenderConfig, papers map[string]config.PaperSize) (*page.PrintToPDFParams, error) {
	paper, ok := papers[strings.ToUpper(opts.Format)]
	if !ok {
		return nil, fmt.Errorf("unknown paper format %q", opts.Format)
	}

	margins := [4]float64{}
	for i, v := range []string{opts.Margin.Top, opts.Margin.Right, opts.Margin.Bottom, opts.Margin.Left} {
		inches, err := parseLengthInches(v)
		if err != nil {
			return nil, fmt.Errorf("margin: %w", err)
		}
		margins[i] = inches
	}

	params := page.PrintToPDF().
		WithPaperWidth(paper.Width).
		WithPaperHeight(paper.Height).
		WithLandscape(opts.Landscape).
		WithPrintBackground(opts.PrintBackground).
		WithScale(opts.Scale).
		WithPreferCSSPageSize(opts.PreferCSSPageSize).
		WithDisplayHeaderFooter(opts.DisplayHeaderFooter).
		WithMarginTop(margins[0]).
		WithMarginRight(margins[1]).
		WithMarginBottom(margins[2]).
		WithMarginLeft(margins[3])

	if opts.DisplayHeaderFooter {
		if opts.HeaderTemplate != "" {
			params = params.WithHeaderTemplate(opts.HeaderTemplate)
		}
		if opts.FooterTemplate != "" {
			params = params.WithFooterTemplate(opts.FooterTemplate)
		}
	}
	if strings.TrimSpace(opts.PageRanges) != "" {
		params = params.WithPageRanges(opts.PageRanges)
	}
	return params, nil
}

// fileURL turns an absolute path into a file:// URL.
func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// runJob loads the input file in the tab bound to ctx and prints it to the
// output path.
func runJob(ctx context.Context, job Job, papers map[string]config.PaperSize) error {
	params, err := buildPrintParams(job.Options, papers)
	if err != nil {
		return domain.NewRenderError(domain.StagePrint, err)
	}

	if err := chromedp.Run(ctx,
		chromedp.Navigate(fileURL(job.InputPath)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return domain.NewRenderError(domain.StageNavigate, err)
	}

	var pdfBuf []byte
	if err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdfBuf, _, err = params.Do(ctx)
		return err
	})); err != nil {
		return domain.NewRenderError(domain.StagePrint, err)
	}

	if err := os.WriteFile(job.OutputPath, pdfBuf, 0o600); err != nil {
		return domain.NewRenderError(domain.StageWrite, err)
	}
	return nil
}
