package airalo

import (
	"encoding/json"
	"fmt"
)

// TokenResponse is the payload of POST /v2/token.
type TokenResponse struct {
	Data struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	} `json:"data"`
}

// PackagesResponse is one page of GET /v2/packages.
type PackagesResponse struct {
	Data []Country `json:"data"`
	Meta Meta      `json:"meta"`
}

// Meta carries pagination info.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// Country groups operators selling in one destination (or region).
type Country struct {
	Slug        string     `json:"slug"`
	CountryCode string     `json:"country_code"`
	Title       string     `json:"title"`
	Operators   []Operator `json:"operators"`
}

// Operator is the network provider behind a set of packages.
type Operator struct {
	ID        int              `json:"id"`
	Title     string           `json:"title"`
	Countries []OperatorRegion `json:"countries"`
	Packages  []Package        `json:"packages"`
}

// OperatorRegion is one covered country of an operator.
type OperatorRegion struct {
	CountryCode string `json:"country_code"`
	Title       string `json:"title"`
}

// Package is a purchasable data plan.
type Package struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Price       json.Number `json:"price"`
	Amount      int         `json:"amount"`
	Day         int         `json:"day"`
	IsUnlimited bool        `json:"is_unlimited"`
	Data        string      `json:"data"`
}

// FlatPackage is a package together with the operator and coverage it belongs to.
type FlatPackage struct {
	Package
	Operator  string
	Countries []string
}

// Flatten expands the nested country/operator/package tree. Packages of type
// "topup" are skipped since they cannot be sold as a new eSIM.
func Flatten(countries []Country) []FlatPackage {
	var out []FlatPackage
	for _, c := range countries {
		for _, op := range c.Operators {
			codes := make([]string, 0, len(op.Countries))
			for _, r := range op.Countries {
				if r.CountryCode != "" {
					codes = append(codes, r.CountryCode)
				}
			}
			if len(codes) == 0 && c.CountryCode != "" {
				codes = append(codes, c.CountryCode)
			}
			for _, p := range op.Packages {
				if p.Type == "topup" {
					continue
				}
				out = append(out, FlatPackage{Package: p, Operator: op.Title, Countries: codes})
			}
		}
	}
	return out
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airalo returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}
