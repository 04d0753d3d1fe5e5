package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleCompileDefaultsToIMS(t *testing.T) {
	re, err := VerificationRule{Pattern: `.*?acme member.*?${name}.*?`}.Compile("Jane Doe")
	require.NoError(t, err)

	assert.True(t, re.MatchString("header\nACME MEMBER\nstats\njane doe\nfooter"),
		"matching is case-insensitive and spans line breaks")
	assert.False(t, re.MatchString("ACME MEMBER\nsomeone else"))
}

func TestRuleCompileEscapesSuppliedName(t *testing.T) {
	re, err := VerificationRule{Pattern: `${name}`}.Compile("J.D(oe)")
	require.NoError(t, err)
	assert.True(t, re.MatchString("J.D(oe)"))
	assert.False(t, re.MatchString("JxD(oe)"), "name metacharacters are literal")
}

func TestRuleCompileDropsForeignFlags(t *testing.T) {
	// guild admins write Javascript-style flag strings
	re, err := VerificationRule{Pattern: `abc`, Flags: "gimu"}.Compile("x")
	require.NoError(t, err)
	assert.True(t, re.MatchString("ABC"))
}

func TestRuleCompileExplicitFlags(t *testing.T) {
	re, err := VerificationRule{Pattern: `^abc$`, Flags: "m"}.Compile("x")
	require.NoError(t, err)
	assert.True(t, re.MatchString("first\nabc\nlast"))
	// no i flag: case matters
	assert.False(t, re.MatchString("first\nABC\nlast"))
}

func TestRuleCompileBadPattern(t *testing.T) {
	_, err := VerificationRule{Pattern: `(`}.Compile("x")
	assert.Error(t, err)
}
