package components

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"
	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/schema"
	"github.com/xuri/excelize/v2"

	"docstore-platform/internal/storage"
)

// previewPageLimit is the fallback preview crawl cap when the caller does
// not supply one.
const previewPageLimit = 3

// splitIntoDocs applies the splitter to one extracted text and fans the
// chunks out into documents carrying the source metadata.
func splitIntoDocs(text string, meta map[string]any, sp Splitter) ([]schema.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if sp == nil {
		return []schema.Document{{PageContent: text, Metadata: cloneMeta(meta)}}, nil
	}
	chunks, err := sp.Split(text)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, schema.Document{PageContent: chunk, Metadata: cloneMeta(meta)})
	}
	return docs, nil
}

func cloneMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// plainTextLoader wraps raw text pasted into the loader config, or the
// rehydrated content of an uploaded text file.
type plainTextLoader struct{}

func (l *plainTextLoader) Load(_ context.Context, input LoaderInput) ([]schema.Document, error) {
	text := stringOption(input.Config, "text", "")
	if text == "" {
		return nil, fmt.Errorf("plain text loader requires a non-empty text value")
	}
	meta := map[string]any{"source": "text"}
	if storage.IsDataURI(text) {
		_, data, filename, err := storage.ParseDataURI(text)
		if err != nil {
			return nil, fmt.Errorf("failed to decode text content: %w", err)
		}
		text = string(data)
		if filename != "" {
			meta["source"] = filename
		}
	}
	return splitIntoDocs(text, meta, input.Splitter)
}

// pdfFileLoader extracts one document per PDF page.
type pdfFileLoader struct{}

func (l *pdfFileLoader) Load(_ context.Context, input LoaderInput) ([]schema.Document, error) {
	value := stringOption(input.Config, "pdfFile", "")
	if value == "" {
		return nil, fmt.Errorf("pdf loader requires a pdfFile value")
	}
	_, data, filename, err := storage.ParseDataURI(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pdf content: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", filename, err)
	}

	var docs []schema.Document
	for pageNo := 1; pageNo <= reader.NumPage(); pageNo++ {
		page := reader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with broken font maps are skipped, not fatal.
			continue
		}
		pageDocs, err := splitIntoDocs(text, map[string]any{
			"source": filename,
			"page":   pageNo,
		}, input.Splitter)
		if err != nil {
			return nil, err
		}
		docs = append(docs, pageDocs...)
	}
	return docs, nil
}

// spreadsheetLoader extracts one document per sheet, rows joined by newlines
// and cells by tabs.
type spreadsheetLoader struct{}

func (l *spreadsheetLoader) Load(_ context.Context, input LoaderInput) ([]schema.Document, error) {
	value := stringOption(input.Config, "spreadsheetFile", "")
	if value == "" {
		return nil, fmt.Errorf("spreadsheet loader requires a spreadsheetFile value")
	}
	_, data, filename, err := storage.ParseDataURI(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode spreadsheet content: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", filename, err)
	}
	defer f.Close()

	var docs []schema.Document
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		sheetDocs, err := splitIntoDocs(b.String(), map[string]any{
			"source": filename,
			"sheet":  sheet,
		}, input.Splitter)
		if err != nil {
			return nil, err
		}
		docs = append(docs, sheetDocs...)
	}
	return docs, nil
}

// pageBodyText extracts the visible text of a crawled page, dropping
// script, style and noscript nodes.
func pageBodyText(doc *goquery.Selection) string {
	sel := doc.Clone()
	sel.Find("script, style, noscript").Remove()
	return strings.TrimSpace(sel.Find("body").Text())
}

// webScraperLoader crawls same-domain pages starting from a URL. Preview
// runs stop after previewPageLimit pages.
type webScraperLoader struct{}

func (l *webScraperLoader) Load(ctx context.Context, input LoaderInput) ([]schema.Document, error) {
	rawURL := stringOption(input.Config, "url", "")
	if rawURL == "" {
		return nil, fmt.Errorf("web scraper requires a url value")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	maxPages := intOption(input.Config, "maxPages", 10)
	if input.Preview {
		limit := input.PreviewLimit
		if limit <= 0 {
			limit = previewPageLimit
		}
		if maxPages > limit {
			maxPages = limit
		}
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	c := colly.NewCollector(
		colly.MaxDepth(intOption(input.Config, "maxDepth", 2)),
		colly.AllowedDomains(host, "www."+host),
	)
	c.SetRequestTimeout(30 * time.Second)
	if input.Credential != "" {
		c.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Authorization", "Bearer "+input.Credential)
		})
	}

	type pageText struct {
		url  string
		text string
	}
	var (
		mu    sync.Mutex
		pages []pageText
	)

	c.OnHTML("html", func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(pages) >= maxPages {
			return
		}
		pages = append(pages, pageText{url: e.Request.URL.String(), text: pageBodyText(e.DOM)})
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		mu.Lock()
		full := len(pages) >= maxPages
		mu.Unlock()
		if full {
			return
		}
		_ = e.Request.Visit(e.Attr("href"))
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", rawURL, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, p := range pages {
		pageDocs, err := splitIntoDocs(p.text, map[string]any{"source": p.url}, input.Splitter)
		if err != nil {
			return nil, err
		}
		docs = append(docs, pageDocs...)
	}
	return docs, nil
}
