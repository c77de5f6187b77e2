package oneentry

import (
	"encoding/json"
	"strings"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/textutil"
)

// The CMS ships loosely-typed payloads: identifiers that are sometimes
// numbers, attribute bags keyed by marker, localisation that may be absent.
// Decoding happens here, once, with explicit fallbacks; nothing downstream
// touches raw CMS shapes.

type catalogEntity struct {
	ID            json.Number   `json:"id"`
	LocalizeInfos localizeInfos `json:"localizeInfos"`
	Products      struct {
		Items []productEntity `json:"items"`
	} `json:"catalogProducts"`
}

type productEntity struct {
	ID              domain.ProductID `json:"id"`
	LocalizeInfos   localizeInfos    `json:"localizeInfos"`
	Price           float64          `json:"price"`
	AttributeValues attributeValues  `json:"attributeValues"`
	ProductPages    []struct {
		PageID json.Number `json:"pageId"`
	} `json:"productPages"`
}

type localizeInfos struct {
	Title string `json:"title"`
}

type attributeValues struct {
	Title struct {
		Value string `json:"value"`
	} `json:"p_title"`
	Price struct {
		Value float64 `json:"value"`
	} `json:"p_price"`
	Image struct {
		Value struct {
			DownloadLink string `json:"downloadLink"`
		} `json:"value"`
	} `json:"p_image"`
	Description struct {
		Value []struct {
			HTMLValue string `json:"htmlValue"`
		} `json:"value"`
	} `json:"p_description"`
}

type formAttributeEntity struct {
	Marker        string        `json:"marker"`
	Type          string        `json:"type"`
	Position      int           `json:"position"`
	Required      bool          `json:"isRequired"`
	LocalizeInfos localizeInfos `json:"localizeInfos"`
}

type userEntity struct {
	ID         json.Number `json:"id"`
	Identifier string      `json:"identifier"`
	FormData   []struct {
		Marker string `json:"marker"`
		Value  string `json:"value"`
	} `json:"formData"`
}

// Summary converts a product entity to the validated card shape.
func (p productEntity) Summary() domain.ProductSummary {
	return domain.ProductSummary{
		ID:    p.ID,
		Title: p.title(),
		Price: p.price(),
		Image: p.AttributeValues.Image.Value.DownloadLink,
	}
}

// Detail converts a product entity to the detail shape. The description is
// the raw CMS fragment; sanitisation is the catalog service's job.
func (p productEntity) Detail() domain.ProductDetail {
	detail := domain.ProductDetail{
		ProductSummary:  p.Summary(),
		DescriptionHTML: p.description(),
	}
	if len(p.ProductPages) > 0 {
		detail.PageID = p.ProductPages[0].PageID.String()
	}
	return detail
}

func (p productEntity) title() string {
	return textutil.FirstNonEmpty(p.AttributeValues.Title.Value, p.LocalizeInfos.Title, domain.PlaceholderTitle)
}

func (p productEntity) price() float64 {
	if price := p.AttributeValues.Price.Value; price > 0 {
		return price
	}
	if p.Price > 0 {
		return p.Price
	}
	return 0
}

func (p productEntity) description() string {
	for _, fragment := range p.AttributeValues.Description.Value {
		if html := strings.TrimSpace(fragment.HTMLValue); html != "" {
			return html
		}
	}
	return ""
}

// Section converts a catalog entity and its products.
func (c catalogEntity) Section() domain.CatalogSection {
	title := textutil.FirstNonEmpty(c.LocalizeInfos.Title, domain.PlaceholderTitle)
	products := make([]domain.ProductSummary, 0, len(c.Products.Items))
	for _, item := range c.Products.Items {
		if item.ID.IsZero() {
			continue
		}
		products = append(products, item.Summary())
	}
	return domain.CatalogSection{
		ID:       c.ID.String(),
		Title:    title,
		Products: products,
	}
}

// Field converts a form attribute to the generic descriptor. Unknown CMS
// input types degrade to plain text; the password marker is always masked.
func (f formAttributeEntity) Field() domain.FormField {
	kind := domain.FormFieldText
	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "email":
		kind = domain.FormFieldEmail
	case "password":
		kind = domain.FormFieldPassword
	}
	if strings.EqualFold(strings.TrimSpace(f.Marker), "password") {
		kind = domain.FormFieldPassword
	}

	label := strings.TrimSpace(f.LocalizeInfos.Title)
	if label == "" {
		label = strings.TrimSpace(f.Marker)
	}
	return domain.FormField{
		Marker:   strings.TrimSpace(f.Marker),
		Label:    label,
		Kind:     kind,
		Required: f.Required,
		Position: f.Position,
	}
}

// Identity converts a user entity, preferring form data for display fields.
func (u userEntity) Identity() domain.UserIdentity {
	identity := domain.UserIdentity{
		ID:    u.ID.String(),
		Email: strings.TrimSpace(u.Identifier),
	}
	for _, field := range u.FormData {
		switch strings.ToLower(strings.TrimSpace(field.Marker)) {
		case "name":
			identity.Name = strings.TrimSpace(field.Value)
		case "email":
			if identity.Email == "" {
				identity.Email = strings.TrimSpace(field.Value)
			}
		}
	}
	return identity
}
