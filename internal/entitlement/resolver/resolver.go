// Package resolver maps a feature slug to its credit price and to the credit
// allocation a customer's active subscription grants for it.
//
// Every function here is pure: inputs are never mutated, nothing is cached,
// and an unresolvable lookup is reported as ok == false rather than an error.
// Callers may invoke them concurrently.
package resolver

import (
	"strings"

	"github.com/smallbiznis/creditgate/internal/entitlement/domain"
)

// FeatureCreditArgs are the inputs of a credit price lookup. A nil pricing
// model means the model is unavailable.
type FeatureCreditArgs struct {
	FeatureSlug      string
	CustomerFeatures []domain.CustomerFeature
	PricingModel     *domain.PricingModel
}

// FeatureAllocationArgs extends FeatureCreditArgs with the customer snapshot.
type FeatureAllocationArgs struct {
	FeatureCreditArgs
	CustomerInfo *domain.CustomerInfo
}

type featureMetadata struct {
	identifiers domain.IdentifierSet
	// entitlement is the pricing-model entitlement matched by slug, if any.
	entitlement *domain.Entitlement
}

// ResolveFeatureIdentifiers returns every identifier that refers to the
// feature: the id and cross-environment id of the entitlement whose slug
// matches, plus the internal id and id of the customer feature that matches
// the slug. The set is empty when nothing matches.
func ResolveFeatureIdentifiers(featureSlug string, customerFeatures []domain.CustomerFeature, pricingModel *domain.PricingModel) domain.IdentifierSet {
	return resolveFeatureMetadata(featureSlug, customerFeatures, pricingModel).identifiers
}

func resolveFeatureMetadata(featureSlug string, customerFeatures []domain.CustomerFeature, pricingModel *domain.PricingModel) featureMetadata {
	var meta featureMetadata
	if featureSlug == "" || pricingModel == nil {
		return meta
	}

	slug := strings.TrimSpace(featureSlug)
	if slug == "" {
		return meta
	}

	for i := range pricingModel.Entitlements {
		if pricingModel.Entitlements[i].Slug == slug {
			meta.entitlement = &pricingModel.Entitlements[i]
			break
		}
	}

	if meta.entitlement != nil {
		meta.identifiers.Add(meta.entitlement.ID)
		meta.identifiers.Add(meta.entitlement.CrossEnvironmentID)
	}
	if feature, ok := domain.FindFeature(customerFeatures, slug); ok {
		meta.identifiers.Add(feature.InternalID)
		meta.identifiers.Add(feature.ID)
	}

	return meta
}

// FindFeatureCreditPrice returns the per-use credit price of a feature.
//
// Plan-level prices win over the entitlement default: plans are scanned in
// pricing-model order and, within a plan, entitlements in list order; the
// first matching plan entitlement with a price is returned. Otherwise the
// price of the entitlement matched by slug is used.
func FindFeatureCreditPrice(args FeatureCreditArgs) (float64, bool) {
	if args.PricingModel == nil {
		return 0, false
	}

	meta := resolveFeatureMetadata(args.FeatureSlug, args.CustomerFeatures, args.PricingModel)

	for _, plan := range args.PricingModel.Plans {
		for _, planEntitlement := range plan.Entitlements {
			if !meta.identifiers.Has(planEntitlement.ID) {
				continue
			}
			if price, ok := planEntitlement.Price.Value(); ok {
				return price, true
			}
		}
	}

	if meta.entitlement == nil {
		return 0, false
	}
	return meta.entitlement.Price.Value()
}

// FindFeatureCreditAllocation returns the credit allocation granted for a
// feature by the customer's active plan.
//
// The first plan in pricing-model order that is active for the customer and
// carries the feature wins; allocations of other active plans are neither
// summed nor compared.
func FindFeatureCreditAllocation(args FeatureAllocationArgs) (float64, bool) {
	if args.PricingModel == nil {
		return 0, false
	}

	meta := resolveFeatureMetadata(args.FeatureSlug, args.CustomerFeatures, args.PricingModel)
	if meta.identifiers.Empty() {
		return 0, false
	}

	activePlanIDs := CollectActivePlanIDs(args.CustomerInfo)
	if activePlanIDs.Empty() {
		return 0, false
	}

	for _, plan := range args.PricingModel.Plans {
		if !activePlanIDs.Has(plan.Identifier()) {
			continue
		}
		if amount, ok := findMatchingAllocation(plan, meta.identifiers); ok {
			return amount, true
		}
	}

	return 0, false
}

// CollectActivePlanIDs unions the id and cross-environment id of every active
// subscription's plan. Subscriptions without a plan are skipped.
func CollectActivePlanIDs(customerInfo *domain.CustomerInfo) domain.IdentifierSet {
	var ids domain.IdentifierSet
	if customerInfo == nil {
		return ids
	}
	for _, subscription := range customerInfo.ActiveSubscriptions {
		if subscription.Plan == nil {
			continue
		}
		ids.Add(subscription.Plan.ID)
		ids.Add(subscription.Plan.CrossEnvironmentID)
	}
	return ids
}

func findMatchingAllocation(plan domain.Plan, identifiers domain.IdentifierSet) (float64, bool) {
	var (
		matched             bool
		customPricingUnitID domain.Identifier
	)
	for _, entitlement := range plan.Entitlements {
		if !identifiers.Has(entitlement.ID) {
			continue
		}
		matched = true
		if !entitlement.CustomPricingUnitID.Empty() {
			customPricingUnitID = entitlement.CustomPricingUnitID
		}
	}

	if !matched || len(plan.Allocations) == 0 {
		return 0, false
	}

	if !customPricingUnitID.Empty() {
		for _, allocation := range plan.Allocations {
			if allocation.CustomPricingUnitID == customPricingUnitID {
				return amountOf(allocation)
			}
		}
	}

	return amountOf(plan.Allocations[0])
}

func amountOf(allocation domain.Allocation) (float64, bool) {
	if allocation.Amount == nil {
		return 0, false
	}
	return *allocation.Amount, true
}
