package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorisk-server/internal/domain"
)

func cachePanel() *domain.BiomarkerPanel {
	p := &domain.BiomarkerPanel{
		Age:                64,
		BMI:                29.5,
		Stage:              domain.StageIA,
		Histology:          domain.HistologyEndometrioid,
		Grade:              domain.GradeG3,
		MyometrialInvasion: domain.InvasionLessThanHalf,
		LVSI:               domain.LVSINone,
		LymphNodes:         domain.NodesNegative,
		POLE:               domain.POLEWildType,
		MMR:                domain.MMRProficient,
		P53:                domain.P53Abnormal,
	}
	p.Normalize()
	return p
}

func TestPanelKey_Deterministic(t *testing.T) {
	k1, err := panelKey(cachePanel(), "gbm-1.0.0")
	require.NoError(t, err)
	k2, err := panelKey(cachePanel(), "gbm-1.0.0")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "assessment:"))
}

func TestPanelKey_SensitiveToPanel(t *testing.T) {
	base, err := panelKey(cachePanel(), "gbm-1.0.0")
	require.NoError(t, err)

	changed := cachePanel()
	changed.Grade = domain.GradeG1
	other, err := panelKey(changed, "gbm-1.0.0")
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestPanelKey_SensitiveToModelVersion(t *testing.T) {
	v1, err := panelKey(cachePanel(), "gbm-1.0.0")
	require.NoError(t, err)
	v2, err := panelKey(cachePanel(), "gbm-1.1.0")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}
