// Package browser extracts page text and review comments from live pages
// using a headless Chrome instance. Review sites render client-side, so a
// plain HTTP fetch returns an empty shell; the page has to be executed.
package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
)

// Config holds extractor settings.
type Config struct {
	// ExecPath overrides the Chrome binary location. Empty lets chromedp
	// find one.
	ExecPath         string
	PageTimeout      time.Duration
	EntitySelector   string
	CommentsSelector string
	Logger           *zap.Logger
}

// Extractor drives a headless browser to pull text out of review pages.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a page extractor.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// extractedItem is the shape produced by the collection script.
type extractedItem struct {
	Text       string `json:"text"`
	EntityName string `json:"entityName"`
}

// Extract navigates to url and returns the rendered page text plus any
// review comments found by the configured selectors. A page that renders
// but contains no recognizable reviews still returns its text, with
// domain.ErrNoReviews wrapped in the error.
func (e *Extractor) Extract(ctx context.Context, url string) (domain.Extraction, error) {
	ctx, cancelTimeout := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancelTimeout()

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if e.cfg.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.cfg.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pageText string
	var items []extractedItem

	start := time.Now()
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.body.innerText`, &pageText),
		chromedp.Evaluate(collectScript(e.cfg.EntitySelector, e.cfg.CommentsSelector), &items),
	)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("render %s: %v: %w", url, err, domain.ErrExtraction)
	}
	if pageText == "" {
		return domain.Extraction{}, fmt.Errorf("page %s rendered empty: %w", url, domain.ErrExtraction)
	}

	e.logger.Debug("page extracted",
		zap.String("url", url),
		zap.Int("page_chars", len(pageText)),
		zap.Int("reviews", len(items)),
		zap.Duration("duration", time.Since(start)),
	)

	ext := domain.Extraction{PageText: pageText}
	for _, it := range items {
		if it.Text == "" {
			continue
		}
		ext.Reviews = append(ext.Reviews, domain.ExtractedReview{
			Text:       it.Text,
			EntityName: it.EntityName,
		})
	}
	if len(ext.Reviews) == 0 {
		return ext, fmt.Errorf("no reviews on %s: %w", url, domain.ErrNoReviews)
	}
	return ext, nil
}

// collectScript builds the in-page script that gathers review comments and
// the entity name next to them.
func collectScript(entitySelector, commentsSelector string) string {
	return fmt.Sprintf(`(() => {
	const nameEl = document.querySelector(%s);
	const name = nameEl ? nameEl.innerText.trim() : "";
	return Array.from(document.querySelectorAll(%s)).map(el => ({
		text: el.innerText.trim(),
		entityName: name,
	}));
})()`, strconv.Quote(entitySelector), strconv.Quote(commentsSelector))
}
