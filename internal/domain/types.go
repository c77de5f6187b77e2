package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlaceholderTitle replaces product titles the CMS failed to localise.
const PlaceholderTitle = "Untitled product"

// ProductID is the remote product identifier. The CMS emits it as either a
// JSON string or a JSON number depending on the entity type, so it decodes
// from both and normalises to its string form for keying.
type ProductID string

// UnmarshalJSON accepts string and numeric identifiers.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*p = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*p = ProductID(n.String())
	return nil
}

// MarshalJSON emits the canonical string form.
func (p ProductID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// String returns the canonical string form.
func (p ProductID) String() string { return string(p) }

// IsZero reports whether the identifier is empty.
func (p ProductID) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// ProductIDFromInt builds an identifier from a numeric CMS id.
func ProductIDFromInt(id int64) ProductID {
	return ProductID(strconv.FormatInt(id, 10))
}

// LineItem is one product's presence in a cart. Name, Price and Image are
// snapshots taken at add time; the cart never re-fetches them.
type LineItem struct {
	ProductID ProductID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image"`
}

// Cart is the ordered per-session line item collection. At most one line
// exists per product id and every line has quantity >= 1; lines that would
// reach quantity zero are removed, not retained.
type Cart struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Find returns the index of the line item with the given product id, or -1.
func (c Cart) Find(id ProductID) int {
	target := strings.TrimSpace(id.String())
	if target == "" {
		return -1
	}
	for i, item := range c.Items {
		if strings.EqualFold(item.ProductID.String(), target) {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart holds no line items.
func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Clone returns a deep copy safe to hand to observers and callers.
func (c Cart) Clone() Cart {
	dup := c
	dup.Items = make([]LineItem, len(c.Items))
	copy(dup.Items, c.Items)
	return dup
}

// ProductSummary is the boundary-validated card shape used by catalog,
// search and related-product listings.
type ProductSummary struct {
	ID    ProductID `json:"id"`
	Title string    `json:"title"`
	Price float64   `json:"price"`
	Image string    `json:"image"`
}

// ProductDetail extends ProductSummary with the sanitized description
// fragment and the catalog page the product belongs to.
type ProductDetail struct {
	ProductSummary
	DescriptionHTML string `json:"descriptionHtml"`
	PageID          string `json:"pageId,omitempty"`
}

// CatalogSection is one homepage catalog with its products.
type CatalogSection struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Products []ProductSummary `json:"products"`
}

// UserIdentity is the authenticated CMS user as seen by the storefront.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FormFieldKind distinguishes how a dynamic form field is rendered.
type FormFieldKind string

const (
	// FormFieldText renders as a plain text input.
	FormFieldText FormFieldKind = "text"
	// FormFieldEmail renders as an email input.
	FormFieldEmail FormFieldKind = "email"
	// FormFieldPassword renders as a masked input.
	FormFieldPassword FormFieldKind = "password"
)

// FormField is one descriptor of a CMS-defined auth form. The field set is
// data fetched from the CMS, not code; submissions map entered values back
// to the same markers.
type FormField struct {
	Marker   string        `json:"marker"`
	Label    string        `json:"label"`
	Kind     FormFieldKind `json:"kind"`
	Required bool          `json:"required"`
	Position int           `json:"position"`
}
