package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := [][2]string{
		{"Hello %@", "Hello %s"},
		{"%1$@ and %2$@", "%1$s and %2$s"},
		{"%ld items, %lu left", "%d items, %u left"},
		{"%lld total", "%d total"},
		{"50%% off, %d days", "50%% off, %d days"},
		{"no tokens", "no tokens"},
		{"%.2f stays", "%.2f stays"},
		{"%lf kept", "%lf kept"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc[1], Normalize(tc[0]), tc[0])
	}
}

func TestToIOS(t *testing.T) {
	assert.Equal(t, "Hello %@, %1$@ and %d", ToIOS("Hello %s, %1$s and %d"))
	assert.Equal(t, "100%% sure", ToIOS("100%% sure"))
}

func TestSignature(t *testing.T) {
	assert.Equal(t, []string{"1$s", "2$d", "s"}, Signature("Hello %1$@, you have %2$d items and %s extra"))
	assert.Equal(t, []string{"d"}, Signature("Discount: 50%% and value %d"))
	assert.Empty(t, Signature("plain"))
	assert.True(t, SameSignature("%@ has %ld", "%s has %d"))
	assert.False(t, SameSignature("%s", "%d"))
}
