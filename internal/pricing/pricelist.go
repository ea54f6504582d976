package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// priceListDocument is the subset of an AWS Price List item we read. The
// API returns each item as a JSON string.
type priceListDocument struct {
	Product struct {
		Attributes map[string]string `json:"attributes"`
	} `json:"product"`
	Terms struct {
		OnDemand map[string]priceListTerm `json:"OnDemand"`
	} `json:"terms"`
}

type priceListTerm struct {
	PriceDimensions map[string]struct {
		PricePerUnit map[string]string `json:"pricePerUnit"`
	} `json:"priceDimensions"`
}

// parsePriceList decodes the first item of a GetProducts result.
func parsePriceList(priceList []string) (*priceListDocument, error) {
	if len(priceList) == 0 {
		return nil, errNotFound
	}
	var doc priceListDocument
	if err := json.Unmarshal([]byte(priceList[0]), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode price list item: %w", err)
	}
	return &doc, nil
}

// usdRate extracts the first on-demand USD rate from a price list item.
func (d *priceListDocument) usdRate() (float64, error) {
	for _, term := range d.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			rate, err := strconv.ParseFloat(usd, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed USD rate %q: %w", usd, err)
			}
			return rate, nil
		}
	}
	return 0, fmt.Errorf("no on-demand USD rate in price list item")
}

// attributeFloat parses a numeric product attribute such as "vcpu".
func (d *priceListDocument) attributeFloat(name string) (float64, error) {
	raw, ok := d.Product.Attributes[name]
	if !ok {
		return 0, fmt.Errorf("price list item has no %q attribute", name)
	}
	// Memory comes as "16 GiB".
	raw = strings.TrimSuffix(raw, " GiB")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %q attribute %q: %w", name, raw, err)
	}
	return v, nil
}
