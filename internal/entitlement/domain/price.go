package domain

import (
	"encoding/json"
)

// Price is either a flat price or a tiered price. Only the first tier matters
// for display.
type Price struct {
	Flat  *float64 `json:"price,omitempty"`
	Tiers []Tier   `json:"tiers,omitempty"`
}

type Tier struct {
	Price *float64 `json:"price"`
}

// NewFlatPrice is a convenience constructor for a flat price.
func NewFlatPrice(value float64) *Price {
	return &Price{Flat: &value}
}

// NewTieredPrice builds a tiered price with one tier per value.
func NewTieredPrice(values ...float64) *Price {
	tiers := make([]Tier, 0, len(values))
	for _, v := range values {
		value := v
		tiers = append(tiers, Tier{Price: &value})
	}
	return &Price{Tiers: tiers}
}

// Value extracts the display price: the flat value when present, otherwise the
// first tier's price. A nil price, or one with neither shape, yields false.
func (p *Price) Value() (float64, bool) {
	if p == nil {
		return 0, false
	}
	if p.Flat != nil {
		return *p.Flat, true
	}
	if len(p.Tiers) > 0 && p.Tiers[0].Price != nil {
		return *p.Tiers[0].Price, true
	}
	return 0, false
}

// UnmarshalJSON accepts the flat and tiered shapes. A "price" field that is
// not a number is ignored rather than rejected, as are tiers without a
// numeric price.
func (p *Price) UnmarshalJSON(data []byte) error {
	var raw struct {
		Price json.RawMessage   `json:"price"`
		Tiers []json.RawMessage `json:"tiers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*p = Price{}
		return nil
	}

	out := Price{}
	if value, ok := decodeNumber(raw.Price); ok {
		out.Flat = &value
	}
	for _, rawTier := range raw.Tiers {
		var tier struct {
			Price json.RawMessage `json:"price"`
		}
		if err := json.Unmarshal(rawTier, &tier); err != nil {
			out.Tiers = append(out.Tiers, Tier{})
			continue
		}
		if value, ok := decodeNumber(tier.Price); ok {
			out.Tiers = append(out.Tiers, Tier{Price: &value})
			continue
		}
		out.Tiers = append(out.Tiers, Tier{})
	}

	*p = out
	return nil
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}
