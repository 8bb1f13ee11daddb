// Package config loads the conversation policy that tunes the dialogue and
// ordering rules per restaurant. The policy ships as a YAML file: a default
// block plus optional per-restaurant overrides of individual fields.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"drivethru/internal/core/domain/model/order"
)

// Policy is the tuning surface of one restaurant's lane.
type Policy struct {
	// MinConfidence is the proposer confidence below which nothing is
	// applied and a clarifying question is asked instead.
	MinConfidence float64 `yaml:"min_confidence"`
	// UnsafeChangeFraction is the share of existing lines a single batch may
	// touch before the conversation re-summarizes instead of moving on.
	UnsafeChangeFraction float64 `yaml:"unsafe_change_fraction"`
	// TaxBasisPoints is the tax rate in basis points (800 = 8%).
	TaxBasisPoints int64 `yaml:"tax_basis_points"`
	// IdleTimeoutSeconds is how long a lane may stay quiet before the
	// session is released.
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`

	MaxQuantityPerItem  int   `yaml:"max_quantity_per_item"`
	MaxLinesPerOrder    int   `yaml:"max_lines_per_order"`
	MaxModifiersPerItem int   `yaml:"max_modifiers_per_item"`
	MaxOrderTotalCents  int64 `yaml:"max_order_total_cents"`
}

// DefaultPolicy returns the values used when no policy file is configured.
func DefaultPolicy() Policy {
	limits := order.DefaultLimits()
	return Policy{
		MinConfidence:        0.7,
		UnsafeChangeFraction: 0.5,
		TaxBasisPoints:       800,
		IdleTimeoutSeconds:   90,
		MaxQuantityPerItem:   limits.MaxQuantityPerItem,
		MaxLinesPerOrder:     limits.MaxLinesPerOrder,
		MaxModifiersPerItem:  limits.MaxModifiersPerItem,
		MaxOrderTotalCents:   limits.MaxOrderTotalCents,
	}
}

// IdleTimeout returns the idle timeout as a duration.
func (p Policy) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutSeconds) * time.Second
}

// Limits returns the order limits carried by the policy.
func (p Policy) Limits() order.Limits {
	return order.Limits{
		MaxQuantityPerItem:  p.MaxQuantityPerItem,
		MaxLinesPerOrder:    p.MaxLinesPerOrder,
		MaxModifiersPerItem: p.MaxModifiersPerItem,
		MaxOrderTotalCents:  p.MaxOrderTotalCents,
	}
}

func (p Policy) validate() error {
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min_confidence %v is outside [0, 1]", p.MinConfidence)
	}
	if p.UnsafeChangeFraction <= 0 || p.UnsafeChangeFraction > 1 {
		return fmt.Errorf("unsafe_change_fraction %v is outside (0, 1]", p.UnsafeChangeFraction)
	}
	if p.TaxBasisPoints < 0 {
		return fmt.Errorf("tax_basis_points %d is negative", p.TaxBasisPoints)
	}
	if p.IdleTimeoutSeconds < 1 {
		return fmt.Errorf("idle_timeout_seconds %d is not at least 1", p.IdleTimeoutSeconds)
	}
	return nil
}

// PolicyFile is the parsed policy document: a default policy plus sparse
// per-restaurant overrides.
type PolicyFile struct {
	defaults    Policy
	restaurants map[string]rawPolicy
}

// rawPolicy uses pointers so absent fields stay distinguishable from zero
// values when merging overrides.
type rawPolicy struct {
	MinConfidence        *float64 `yaml:"min_confidence"`
	UnsafeChangeFraction *float64 `yaml:"unsafe_change_fraction"`
	TaxBasisPoints       *int64   `yaml:"tax_basis_points"`
	IdleTimeoutSeconds   *int     `yaml:"idle_timeout_seconds"`
	MaxQuantityPerItem   *int     `yaml:"max_quantity_per_item"`
	MaxLinesPerOrder     *int     `yaml:"max_lines_per_order"`
	MaxModifiersPerItem  *int     `yaml:"max_modifiers_per_item"`
	MaxOrderTotalCents   *int64   `yaml:"max_order_total_cents"`
}

type policyDocument struct {
	Default     rawPolicy            `yaml:"default"`
	Restaurants map[string]rawPolicy `yaml:"restaurants"`
}

// LoadPolicyFile parses a policy YAML file. Fields absent from the file keep
// their defaults.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses a policy document from raw YAML.
func ParsePolicy(data []byte) (*PolicyFile, error) {
	var doc policyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	defaults := merge(DefaultPolicy(), doc.Default)
	if err := defaults.validate(); err != nil {
		return nil, err
	}
	for name, override := range doc.Restaurants {
		if err := merge(defaults, override).validate(); err != nil {
			return nil, fmt.Errorf("restaurant %q: %w", name, err)
		}
	}

	return &PolicyFile{
		defaults:    defaults,
		restaurants: doc.Restaurants,
	}, nil
}

// NewDefaultPolicyFile returns a policy file holding only the defaults.
func NewDefaultPolicyFile() *PolicyFile {
	return &PolicyFile{defaults: DefaultPolicy()}
}

// For resolves the effective policy for a restaurant.
func (f *PolicyFile) For(restaurantID string) Policy {
	override, ok := f.restaurants[restaurantID]
	if !ok {
		return f.defaults
	}
	return merge(f.defaults, override)
}

func merge(base Policy, override rawPolicy) Policy {
	if override.MinConfidence != nil {
		base.MinConfidence = *override.MinConfidence
	}
	if override.UnsafeChangeFraction != nil {
		base.UnsafeChangeFraction = *override.UnsafeChangeFraction
	}
	if override.TaxBasisPoints != nil {
		base.TaxBasisPoints = *override.TaxBasisPoints
	}
	if override.IdleTimeoutSeconds != nil {
		base.IdleTimeoutSeconds = *override.IdleTimeoutSeconds
	}
	if override.MaxQuantityPerItem != nil {
		base.MaxQuantityPerItem = *override.MaxQuantityPerItem
	}
	if override.MaxLinesPerOrder != nil {
		base.MaxLinesPerOrder = *override.MaxLinesPerOrder
	}
	if override.MaxModifiersPerItem != nil {
		base.MaxModifiersPerItem = *override.MaxModifiersPerItem
	}
	if override.MaxOrderTotalCents != nil {
		base.MaxOrderTotalCents = *override.MaxOrderTotalCents
	}
	return base
}
