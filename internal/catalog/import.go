package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/search"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// htmlToMarkdown converts HTML descriptions scraped from company pages to
// Markdown. Plain text is returned unchanged.
func htmlToMarkdown(s string) string {
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}

	return strings.TrimSpace(markdown)
}

// ImportFile imports a JSON seed file. See Import.
func (c *Catalog) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return c.Import(ctx, f)
}

// Import reads a JSON array of catalog entities and upserts them. Records
// that fail validation are skipped with a warning. IDs default to
// "<type>-<slug>", so importing the same file twice is idempotent.
// Returns the number of entities imported.
func (c *Catalog) Import(ctx context.Context, r io.Reader) (int, error) {
	var records []domain.CatalogEntity
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode catalog seed: %w", err)
	}

	docs := make([]*search.EntityDocument, 0, len(records))
	for i := range records {
		e := &records[i]
		if err := normalize(e); err != nil {
			c.logger.Warn("skipping catalog record", "index", i, "error", err)
			continue
		}
		if err := c.entities.Put(ctx, e.ID, e); err != nil {
			return len(docs), fmt.Errorf("store catalog entity %s: %w", e.ID, err)
		}
		docs = append(docs, search.EntityToDocument(e))
	}

	if err := c.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index catalog: %w", err)
	}
	c.cache.Clear()

	c.logger.Info("catalog imported", "entities", len(docs), "skipped", len(records)-len(docs))
	return len(docs), nil
}
