package mobimatter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProductsResponse is the wrapped form of the products payload.
type ProductsResponse struct {
	StatusCode int       `json:"statusCode"`
	Result     []Product `json:"result"`
}

// Product is a single wholesale offer.
type Product struct {
	ProductID         string          `json:"productId"`
	ProductFamilyName string          `json:"productFamilyName"`
	ProviderName      string          `json:"providerName"`
	Countries         []string        `json:"countries"`
	WholesalePrice    json.Number     `json:"wholesalePrice"`
	CurrencyCode      string          `json:"currencyCode"`
	ProductDetails    []ProductDetail `json:"productDetails"`
}

// ProductDetail is a name/value attribute attached to a product.
type ProductDetail struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Detail names used by MobiMatter.
const (
	DetailPlanTitle     = "PLAN_TITLE"
	DetailDataLimit     = "PLAN_DATA_LIMIT"
	DetailDataUnit      = "PLAN_DATA_UNIT"
	DetailValidityHours = "PLAN_VALIDITY"
)

// Detail returns the value of the named detail, or "".
func (p *Product) Detail(name string) string {
	for _, d := range p.ProductDetails {
		if strings.EqualFold(d.Name, name) {
			return strings.TrimSpace(d.Value)
		}
	}
	return ""
}

// Title returns the plan title, falling back to the family name.
func (p *Product) Title() string {
	if t := p.Detail(DetailPlanTitle); t != "" {
		return t
	}
	return p.ProductFamilyName
}

// DataMB returns the data allowance in MB, or unlimited (-1). A product
// with neither a data limit nor an unlimited unit is an error, not an unlimited plan.
func (p *Product) DataMB() (int, error) {
	limit := p.Detail(DetailDataLimit)
	unit := strings.ToUpper(p.Detail(DetailDataUnit))
	if strings.EqualFold(limit, "unlimited") || unit == "UNLIMITED" || limit == "-1" {
		return -1, nil
	}
	if limit == "" {
		return 0, fmt.Errorf("product %s: missing data limit", p.ProductID)
	}
	v, err := strconv.ParseFloat(limit, 64)
	if err != nil {
		return 0, fmt.Errorf("product %s: invalid data limit %q", p.ProductID, limit)
	}
	switch unit {
	case "GB", "":
		return int(v * 1024), nil
	case "MB":
		return int(v), nil
	default:
		return 0, fmt.Errorf("product %s: unknown data unit %q", p.ProductID, unit)
	}
}

// ValidityDays converts the validity (expressed in hours) to whole days,
// rounding partial days up.
func (p *Product) ValidityDays() (int, error) {
	raw := p.Detail(DetailValidityHours)
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("product %s: invalid validity %q", p.ProductID, raw)
	}
	return (hours + 23) / 24, nil
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mobimatter returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}
