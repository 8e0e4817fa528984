package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWAID(t *testing.T) {
	tests := map[string]string{
		"591700":            "591700",
		"+591 72296430":     "59172296430",
		" (591) 700-00-00 ": "5917000000",
		"":                  "",
		"abc":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeWAID(in), in)
	}
}
