// Package menufile serves menu snapshots from a YAML file. The file is read
// once at startup; every Snapshot call returns a view over the same loaded
// menu, so a turn always validates against a consistent catalog.
package menufile

import (
	"context"
	"fmt"
	"os"

	"drivethru/internal/core/domain/services"
	"drivethru/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// menuFile is the on-disk layout: items grouped per restaurant.
type menuFile struct {
	Restaurants map[string]restaurantMenu `yaml:"restaurants"`
}

type restaurantMenu struct {
	Items []menuItem `yaml:"items"`
}

type menuItem struct {
	ID                 string           `yaml:"id"`
	Name               string           `yaml:"name"`
	Available          bool             `yaml:"available"`
	PriceCents         int64            `yaml:"price_cents"`
	SizePriceCents     map[string]int64 `yaml:"size_price_cents"`
	AllowedSizes       []string         `yaml:"allowed_sizes"`
	AllowedModifiers   []string         `yaml:"allowed_modifiers"`
	ComboUpchargeCents int64            `yaml:"combo_upcharge_cents"`
}

// Catalog implements ports.MenuCatalog over a YAML menu file.
type Catalog struct {
	restaurants map[string]snapshot
}

// snapshot is the per-restaurant lookup view handed to the pipeline.
type snapshot struct {
	items map[string]services.MenuItemInfo
}

// Lookup returns the catalog entry for a menu item id.
func (s snapshot) Lookup(menuItemID string) (services.MenuItemInfo, bool) {
	info, ok := s.items[menuItemID]
	return info, ok
}

// LoadCatalog reads and validates a YAML menu file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file menuFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse menu file: %w", err)
	}
	if len(file.Restaurants) == 0 {
		return nil, errs.NewValueIsRequiredError("restaurants")
	}

	restaurants := make(map[string]snapshot, len(file.Restaurants))
	for restaurantID, menu := range file.Restaurants {
		items := make(map[string]services.MenuItemInfo, len(menu.Items))
		for _, item := range menu.Items {
			if item.ID == "" {
				return nil, errs.NewValueIsRequiredError("item id")
			}
			if item.PriceCents < 0 {
				return nil, errs.NewValueIsInvalidError("price_cents")
			}
			items[item.ID] = services.MenuItemInfo{
				ID:                 item.ID,
				Name:               item.Name,
				Available:          item.Available,
				PriceCents:         item.PriceCents,
				SizePriceCents:     item.SizePriceCents,
				AllowedSizes:       item.AllowedSizes,
				AllowedModifiers:   item.AllowedModifiers,
				ComboUpchargeCents: item.ComboUpchargeCents,
			}
		}
		restaurants[restaurantID] = snapshot{items: items}
	}

	return &Catalog{restaurants: restaurants}, nil
}

// Snapshot returns the menu view for a restaurant.
func (c *Catalog) Snapshot(_ context.Context, restaurantID string) (services.Catalog, error) {
	view, ok := c.restaurants[restaurantID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("restaurant menu", restaurantID)
	}
	return view, nil
}
