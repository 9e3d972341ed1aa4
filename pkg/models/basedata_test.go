package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMetric(t *testing.T) {
	assert.Equal(t, MetricHPS, ParseMetric("hps"))
	assert.Equal(t, MetricDPS, ParseMetric("dps"))
	assert.Equal(t, MetricDPS, ParseMetric("tank"))
	assert.Equal(t, MetricDPS, ParseMetric(""))
}

func TestBaseDataLookup(t *testing.T) {
	b := NewBaseData()
	b.Classes[1] = Class{ID: 1, Name: "Warrior", Slug: "warrior", Specs: map[int]ClassSpec{
		1: {ID: 1, Name: "Arms", Slug: "arms", Metric: MetricDPS},
	}}
	b.RegionByServer["Area 52"] = "US"

	cls, ok := b.ClassByID(1)
	assert.True(t, ok)
	assert.Equal(t, "Warrior", cls.Name)

	_, ok = b.ClassByID(99)
	assert.False(t, ok)

	assert.Equal(t, "US", b.RegionFor("Area 52"))
	assert.Equal(t, "", b.RegionFor("Unknown Realm"))
}
