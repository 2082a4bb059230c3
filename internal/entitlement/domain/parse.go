package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParsePricingModel decodes a vendor pricing-model payload. Only payloads that
// are not JSON objects are rejected; missing or oddly shaped fields degrade to
// absent values so the resolver can treat them as "unresolvable".
func ParsePricingModel(data []byte) (*PricingModel, error) {
	if err := requireObject(data); err != nil {
		return nil, err
	}
	var model PricingModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: pricing model: %v", ErrInvalidPayload, err)
	}
	return &model, nil
}

// ParseCustomer decodes a vendor customer snapshot payload.
func ParseCustomer(data []byte) (*CustomerInfo, error) {
	if err := requireObject(data); err != nil {
		return nil, err
	}
	var customer CustomerInfo
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("%w: customer: %v", ErrInvalidPayload, err)
	}
	return &customer, nil
}

func requireObject(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrInvalidPayload
	}
	return nil
}
