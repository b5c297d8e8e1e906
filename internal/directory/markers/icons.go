package markers

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/fallback"
	"storefront_backend/platform/slug"
)

// IconTable maps category slugs to icon references. It is loaded from a
// YAML file of the form:
//
//	icons:
//	  bakery: /icons/bakery.svg
//	  florist: /icons/florist.svg
type IconTable map[string]string

// LoadIconTable reads path. An empty path yields an empty table.
func LoadIconTable(path string) (IconTable, error) {
	if strings.TrimSpace(path) == "" {
		return IconTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read icon table: %w", err)
	}
	return ParseIconTable(data)
}

// ParseIconTable decodes the YAML icon table document.
func ParseIconTable(data []byte) (IconTable, error) {
	var doc struct {
		Icons map[string]string `yaml:"icons"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse icon table: %w", err)
	}
	table := make(IconTable, len(doc.Icons))
	for k, v := range doc.Icons {
		if key := slug.Make(k); key != "" && strings.TrimSpace(v) != "" {
			table[key] = strings.TrimSpace(v)
		}
	}
	return table, nil
}

// Annotate fills the icon of categories that have none, matching by slug.
// It returns a copy; the input is not modified.
func (t IconTable) Annotate(categories []domain.Category) []domain.Category {
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	for i := range out {
		if out[i].Icon != "" {
			continue
		}
		if icon, ok := t.lookup(categoryKey(out[i])); ok {
			out[i].Icon = icon
		}
	}
	return out
}

func (t IconTable) lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	icon, ok := t[key]
	return icon, ok
}

func categoryKey(c domain.Category) string {
	if s := slug.Make(c.Slug); s != "" {
		return s
	}
	return slug.Make(c.Name)
}

// IconResolver picks a category icon for a vendor. The order is: exact
// category id, then case-insensitive name containment, then the icon table
// keyed by the vendor's first specialty, then no icon.
type IconResolver struct {
	byID       map[int]domain.Category
	categories []domain.Category
	table      IconTable
}

// NewIconResolver builds a resolver over the category taxonomy.
func NewIconResolver(categories []domain.Category, table IconTable) *IconResolver {
	annotated := table.Annotate(categories)
	byID := make(map[int]domain.Category, len(annotated))
	for _, c := range annotated {
		if c.ID > 0 {
			byID[c.ID] = c
		}
	}
	return &IconResolver{byID: byID, categories: annotated, table: table}
}

// Resolve returns the icon for v, or "" when no strategy matches.
func (r *IconResolver) Resolve(v domain.Vendor) string {
	icon, _ := fallback.First(
		func() (string, bool) { return r.byCategoryID(v.CategoryID) },
		func() (string, bool) { return r.byName(v.Specialty) },
		func() (string, bool) { return r.byTable(v.Specialty) },
	)
	return icon
}

func (r *IconResolver) byCategoryID(id int) (string, bool) {
	c, ok := r.byID[id]
	if !ok || c.Icon == "" {
		return "", false
	}
	return c.Icon, true
}

func (r *IconResolver) byName(specialty string) (string, bool) {
	haystack := strings.ToLower(specialty)
	if haystack == "" {
		return "", false
	}
	for _, c := range r.categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Icon == "" {
			continue
		}
		if strings.Contains(haystack, name) || strings.Contains(name, haystack) {
			return c.Icon, true
		}
	}
	return "", false
}

func (r *IconResolver) byTable(specialty string) (string, bool) {
	first, _, _ := strings.Cut(specialty, ",")
	return r.table.lookup(slug.Make(first))
}
