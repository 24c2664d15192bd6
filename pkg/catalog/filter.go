package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// PriceFilter restricts series by whether they are paid.
type PriceFilter string

const (
	PriceAll  PriceFilter = "all"
	PriceFree PriceFilter = "free"
	PricePaid PriceFilter = "paid"
)

// SortOrder orders filtered series.
type SortOrder string

const (
	// SortPopularity keeps the aggregated order.
	SortPopularity SortOrder = "popularity"
	SortPriceLow   SortOrder = "price_low"
	SortPriceHigh  SortOrder = "price_high"
	// SortTests puts series with the most tests first.
	SortTests SortOrder = "tests"
)

// ParsePriceFilter parses a price filter; empty means PriceAll.
func ParsePriceFilter(s string) (PriceFilter, error) {
	switch p := PriceFilter(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriceAll, nil
	case PriceAll, PriceFree, PricePaid:
		return p, nil
	}
	return "", fmt.Errorf("unknown price filter %q: must be all, free or paid", s)
}

// ParseSortOrder parses a sort order; empty means SortPopularity.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortPopularity, nil
	case SortPopularity, SortPriceLow, SortPriceHigh, SortTests:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q: must be popularity, price_low, price_high or tests", s)
}

// FilterOptions selects and orders series.
type FilterOptions struct {
	// Query matches a case-insensitive substring of the series name.
	Query string
	Price PriceFilter
	Sort  SortOrder
}

// Filter returns the series matching opts in the requested order. The
// input slice is not modified. Sorting is stable, and a missing price
// sorts as zero.
func Filter(series []TestSeriesSummary, opts FilterOptions) []TestSeriesSummary {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]TestSeriesSummary, 0, len(series))
	for _, s := range series {
		if query != "" && !strings.Contains(strings.ToLower(PlainText(s.Name)), query) {
			continue
		}
		switch opts.Price {
		case PriceFree:
			if s.IsPaid {
				continue
			}
		case PricePaid:
			if !s.IsPaid {
				continue
			}
		}
		out = append(out, s)
	}

	switch opts.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return priceOf(out[i]) < priceOf(out[j]) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return priceOf(out[i]) > priceOf(out[j]) })
	case SortTests:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalTests > out[j].TotalTests })
	}
	return out
}

// SelectProviders returns the providers whose name matches want ignoring
// case, or whose api equals want. An empty want keeps every provider.
func SelectProviders(providers []Provider, want string) []Provider {
	want = strings.TrimSpace(want)
	if want == "" {
		return providers
	}
	out := make([]Provider, 0, 1)
	for _, p := range providers {
		if strings.EqualFold(p.Name, want) || p.API == want {
			out = append(out, p)
		}
	}
	return out
}

func priceOf(s TestSeriesSummary) float64 {
	if s.Price == nil {
		return 0
	}
	return *s.Price
}
