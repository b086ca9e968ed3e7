// Package catalog holds the in-memory bakery product list and the filter,
// sort, and search operations the tools are built on.
package catalog

import (
	"sort"
	"strings"
)

// Product is one bakery catalog entry.
type Product struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Rating        float64  `json:"rating"`
	StockQuantity int      `json:"stock_quantity"`
	ImageURL      string   `json:"image_url"`
	DietaryInfo   []string `json:"dietary_info"`
}

// Preferences narrows recommendations by category and dietary restrictions.
type Preferences struct {
	Category            string   `json:"category,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
}

// Catalog is a fixed product list. All methods are read-only.
type Catalog struct {
	products []Product
}

// New returns a catalog over the given products.
func New(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Default returns the standard Sweet Delights catalog.
func Default() *Catalog {
	return New(defaultProducts)
}

// All returns every product.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Categories returns the sorted set of distinct categories.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Popular returns up to limit products ordered by rating, then stock,
// descending.
func (c *Catalog) Popular(limit int) []Product {
	if limit <= 0 {
		limit = 3
	}
	sorted := c.All()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].StockQuantity > sorted[j].StockQuantity
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Search returns products matching every term of the query. A term matches
// if it appears in the name, description, category, or any dietary tag,
// case-insensitively.
func (c *Catalog) Search(query string) []Product {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var results []Product
	for _, p := range c.products {
		name := strings.ToLower(p.Name)
		desc := strings.ToLower(p.Description)
		cat := strings.ToLower(p.Category)

		matched := 0
		for _, term := range terms {
			if strings.Contains(name, term) || strings.Contains(desc, term) || strings.Contains(cat, term) {
				matched++
				continue
			}
			for _, tag := range p.DietaryInfo {
				if strings.Contains(strings.ToLower(tag), term) {
					matched++
					break
				}
			}
		}
		if matched == len(terms) {
			results = append(results, p)
		}
	}
	return results
}

// Recommend returns up to five in-stock products matching the preferences.
// Every dietary restriction must appear among the product's dietary tags.
func (c *Catalog) Recommend(prefs Preferences) []Product {
	category := strings.ToLower(prefs.Category)

	var out []Product
	for _, p := range c.products {
		if p.StockQuantity == 0 {
			continue
		}
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if !hasAllTags(p.DietaryInfo, prefs.DietaryRestrictions) {
			continue
		}
		out = append(out, p)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// Details returns the product with the given id.
func (c *Catalog) Details(id int) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func hasAllTags(tags, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, tag := range tags {
			if strings.EqualFold(tag, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
