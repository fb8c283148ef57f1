// Package plans holds the subscription plan catalog: immutable reference data
// loaded once at process start.
package plans

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/global-academic-forum/backend/internal/models"
)

//go:embed plans.json
var plansJSON []byte

// Catalog is a read-only lookup table of plans by id.
type Catalog struct {
	byID  map[string]*models.Plan
	order []string
}

// NewCatalog loads the embedded plan data. Called once at startup.
func NewCatalog() (*Catalog, error) {
	var list []models.Plan
	if err := json.Unmarshal(plansJSON, &list); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]*models.Plan, len(list))}
	for i := range list {
		p := &list[i]
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Get returns the plan with the given id, or nil when unknown. Absence is an
// expected case (deep links to removed plans) and is never an error.
func (c *Catalog) Get(planID string) *models.Plan {
	return c.byID[planID]
}

// List returns all plans in catalog order.
func (c *Catalog) List() []models.Plan {
	out := make([]models.Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}
