// Package directive loads the per-role governance directive documents
// (markdown files describing each role's mandate, hard/soft policy
// hooks, and any embedded reference tables) and composes them into the
// system prompt roleexec hands to llmclient. Directive authors
// sometimes embed an HTML table inside the markdown for tabular
// reference data (e.g. domain weight hints); composer.go extracts that
// with goquery, the same library and selector idiom the source used
// for HTML forms in internal/utils/form_extractor.go.
package directive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Role names directive files are keyed by.
const (
	RoleStrategist = "strategist"
	RoleAnalyst    = "analyst"
	RoleProducer   = "producer"
	RoleCourier    = "courier"
	RoleCritic     = "critic"
)

// Composer loads directive markdown from a directory and builds the
// system prompt prefix for each role.
type Composer struct {
	dir   string
	cache map[string]string
}

// NewComposer builds a Composer rooted at dir (one "<role>.md" file per
// role, per Operation.DirectivesDir in config).
func NewComposer(dir string) *Composer {
	return &Composer{dir: dir, cache: make(map[string]string)}
}

// Files returns the five per-role directive markdown paths under dir,
// in pipeline order, for callers (internal/fingerprint) that need the
// fixed file set rather than a loaded Composer.
func Files(dir string) []string {
	roles := []string{RoleStrategist, RoleAnalyst, RoleProducer, RoleCourier, RoleCritic}
	paths := make([]string, len(roles))
	for i, role := range roles {
		paths[i] = filepath.Join(dir, role+".md")
	}
	return paths
}

// Load reads and caches the raw directive text for role.
func (c *Composer) Load(role string) (string, error) {
	if text, ok := c.cache[role]; ok {
		return text, nil
	}
	path := filepath.Join(c.dir, role+".md")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("directive: load %s: %w", role, err)
	}
	text := string(raw)
	c.cache[role] = text
	return text, nil
}

// Compose builds the full system prompt prefix for role: the raw
// directive text, followed by any reference tables embedded as HTML
// within it, rendered back out as a flat text table the model can read
// without needing to parse markup itself.
func (c *Composer) Compose(role string) (string, error) {
	text, err := c.Load(role)
	if err != nil {
		return "", err
	}

	tables, err := extractTables(text)
	if err != nil {
		return "", fmt.Errorf("directive: extract tables for %s: %w", role, err)
	}
	if len(tables) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n### REFERENCE TABLES\n")
	for i, t := range tables {
		fmt.Fprintf(&b, "\nTable %d:\n%s\n", i+1, t)
	}
	return b.String(), nil
}

// extractTables finds any <table> elements embedded in markdown text
// and renders each as a newline-separated, tab-joined plain-text grid.
func extractTables(markdown string) ([]string, error) {
	if !strings.Contains(markdown, "<table") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markdown))
	if err != nil {
		return nil, err
	}

	var tables []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, "\t"))
			}
		})
		if len(rows) > 0 {
			tables = append(tables, strings.Join(rows, "\n"))
		}
	})
	return tables, nil
}
