package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogGet(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	plan := catalog.Get("plan-network")
	require.NotNil(t, plan)
	assert.Equal(t, "Research Network", plan.Name)
	assert.False(t, plan.Institutional)

	institutional := catalog.Get("plan-institution")
	require.NotNil(t, institutional)
	assert.True(t, institutional.Institutional)
}

func TestCatalogGetUnknownReturnsNil(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	assert.Nil(t, catalog.Get("plan-removed"))
	assert.Nil(t, catalog.Get(""))
}

func TestCatalogListPreservesOrder(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	list := catalog.List()
	require.Len(t, list, 3)
	assert.Equal(t, "plan-open", list[0].ID)
	assert.Equal(t, "plan-network", list[1].ID)
	assert.Equal(t, "plan-institution", list[2].ID)
}
