package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/httpx"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")

	pricePrinter = message.NewPrinter(language.AmericanEnglish)
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}

// formatPrice renders an amount for display with thousands separators, e.g.
// "$1,299.50".
func formatPrice(amount float64) string {
	return pricePrinter.Sprintf("$%.2f", domain.RoundDisplay(amount))
}

type moneyPayload struct {
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

func money(amount float64) moneyPayload {
	return moneyPayload{
		Amount:  domain.RoundDisplay(amount),
		Display: formatPrice(amount),
	}
}

type totalsPayload struct {
	Subtotal moneyPayload `json:"subtotal"`
	Tax      moneyPayload `json:"tax"`
	Total    moneyPayload `json:"total"`
}

func buildTotalsPayload(totals domain.Totals) totalsPayload {
	return totalsPayload{
		Subtotal: money(totals.Subtotal),
		Tax:      money(totals.Tax),
		Total:    money(totals.Total),
	}
}

type productSummaryPayload struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Price moneyPayload `json:"price"`
	Image string       `json:"image,omitempty"`
}

func buildProductSummaryPayload(product domain.ProductSummary) productSummaryPayload {
	return productSummaryPayload{
		ID:    product.ID.String(),
		Title: product.Title,
		Price: money(product.Price),
		Image: product.Image,
	}
}

func buildProductListPayload(products []domain.ProductSummary) []productSummaryPayload {
	payload := make([]productSummaryPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductSummaryPayload(product))
	}
	return payload
}
