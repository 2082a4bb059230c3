package domain

// PricingModel is the vendor pricing catalog: every billable entitlement plus
// the plans that bundle them.
type PricingModel struct {
	Entitlements []Entitlement `json:"entitlements"`
	Plans        []Plan        `json:"plans"`
}

// Entitlement is a billable capability defined at the pricing-model level.
type Entitlement struct {
	ID                 Identifier `json:"id"`
	Slug               string     `json:"slug"`
	CrossEnvironmentID Identifier `json:"crossEnvironmentId"`
	Price              *Price     `json:"price,omitempty"`
}

// PlanEntitlement is an entitlement as attached to a plan. It may override the
// price and tag a custom pricing unit (a named credit currency).
type PlanEntitlement struct {
	ID                  Identifier `json:"id"`
	CustomPricingUnitID Identifier `json:"customPricingUnitId"`
	Price               *Price     `json:"price,omitempty"`
}

type Plan struct {
	ID                 Identifier        `json:"id"`
	CrossEnvironmentID Identifier        `json:"crossEnvironmentId"`
	Entitlements       []PlanEntitlement `json:"entitlements"`
	Allocations        []Allocation      `json:"allocations"`
}

// Identifier returns the plan id, falling back to the cross-environment id.
func (p Plan) Identifier() Identifier {
	if !p.ID.Empty() {
		return p.ID
	}
	return p.CrossEnvironmentID
}

// Allocation is a quantity of a pricing unit granted per billing cycle.
type Allocation struct {
	Amount              *float64   `json:"amount"`
	CustomPricingUnitID Identifier `json:"customPricingUnitId"`
}

// CustomerFeature is a feature as seen from the customer's entitlement snapshot.
type CustomerFeature struct {
	ID         Identifier `json:"id"`
	InternalID Identifier `json:"internalId"`
	Included   bool       `json:"included"`
	// Limit is nil for unlimited features.
	Limit *int64 `json:"limit"`
}

// CustomerInfo is the customer snapshot returned by the vendor.
type CustomerInfo struct {
	ID                  Identifier        `json:"id"`
	ActiveSubscriptions []Subscription    `json:"activeSubscriptions"`
	Features            []CustomerFeature `json:"features"`
}

type Subscription struct {
	Plan *SubscriptionPlan `json:"plan"`
}

type SubscriptionPlan struct {
	ID                 Identifier `json:"id"`
	CrossEnvironmentID Identifier `json:"crossEnvironmentId"`
}

// FindFeature returns the first customer feature whose id or internal id
// equals the given identifier.
func FindFeature(features []CustomerFeature, id string) (CustomerFeature, bool) {
	if id == "" {
		return CustomerFeature{}, false
	}
	for _, feature := range features {
		if feature.ID.String() == id || feature.InternalID.String() == id {
			return feature, true
		}
	}
	return CustomerFeature{}, false
}
