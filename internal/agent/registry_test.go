package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/domain"
)

func TestLoadRegistry(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, len(domain.Domains()))

	for _, d := range domain.Domains() {
		def, err := reg.ForDomain(d)
		require.NoError(t, err, "domain %s", d)
		assert.Equal(t, d, def.Domain)
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.NotEmpty(t, def.LabelColor)
		assert.NotEmpty(t, def.Capabilities)
		assert.NotEmpty(t, def.SystemPrompt)
	}
}

func TestRegistryForUnknownDomain(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)

	_, err = reg.ForDomain(domain.Domain("gardening"))
	require.Error(t, err)
}

func TestRegistryLabelColors(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)

	colors := reg.LabelColors()
	require.Len(t, colors, len(domain.Domains()))
	assert.Equal(t, "green", colors[domain.DomainSEO])
	assert.Equal(t, "blue", colors[domain.DomainContent])
	assert.Equal(t, "orange", colors[domain.DomainAnalytics])
	assert.Equal(t, "black", colors[domain.DomainStrategy])
}

func TestRegistryAllPreservesOrder(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)

	all := reg.All()
	assert.Equal(t, domain.DomainSEO, all[0].Domain)
	assert.Equal(t, domain.DomainStrategy, all[len(all)-1].Domain)
}
