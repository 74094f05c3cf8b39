package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCode(" usd "))
	assert.Equal(t, "PLN", NormalizeCode("pln"))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(BaseCurrency))
	assert.True(t, IsSupported("USD"))
	assert.True(t, IsSupported("EUR"))
	assert.False(t, IsSupported("DOGE"))
	assert.False(t, IsSupported(""))
	assert.False(t, IsSupported("usd"), "IsSupported expects normalized codes")
}

func TestAlwaysShownIsACopy(t *testing.T) {
	shown := AlwaysShown()
	assert.Contains(t, shown, BaseCurrency)

	shown[0] = "XXX"
	assert.Contains(t, AlwaysShown(), BaseCurrency)
}
