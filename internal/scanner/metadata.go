package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/model"
)

// readPageInfo extracts the document title and language from the rendered page.
// Failures are logged and yield an empty PageInfo; metadata never fails a scan.
// The read is bounded by timeout so a page that never answers cannot stall the scan.
func readPageInfo(ctx context.Context, logger *slog.Logger, page Page, timeout time.Duration) model.PageInfo {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	markup, err := page.OuterHTML(ctx)
	if err != nil {
		logger.DebugContext(ctx, "could not read rendered document", slog.String("error", err.Error()))
		return model.PageInfo{}
	}
	return parsePageInfo(ctx, logger, markup)
}

func parsePageInfo(ctx context.Context, logger *slog.Logger, markup string) model.PageInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		logger.DebugContext(ctx, "could not parse rendered document", slog.String("error", err.Error()))
		return model.PageInfo{}
	}

	info := model.PageInfo{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Lang:  strings.TrimSpace(doc.Find("html").First().AttrOr("lang", "")),
	}
	logger.DebugContext(ctx, "read page metadata", slog.String("title", info.Title), slog.String("lang", info.Lang))
	return info
}
