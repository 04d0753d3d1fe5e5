package bot

import (
	"testing"

	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`verify "My Guild" "Member" "Jane Doe"`, "verify")
	require.NoError(t, err)
	assert.Equal(t, []string{"My Guild", "Member", "Jane Doe"}, args)
}

func TestParseArgsNoArgs(t *testing.T) {
	args, err := ParseArgs("verify", "verify")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseArgsTrimsPadding(t *testing.T) {
	args, err := ParseArgs(`verify   " Acme "  "Member"`, "verify")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Member"}, args)
}

func TestParseArgsUnquotedJunk(t *testing.T) {
	_, err := ParseArgs(`verify junk "Acme"`, "verify")
	assert.ErrorIs(t, err, model.InvalidSyntaxErr)
}

func TestParseArgsCommandCase(t *testing.T) {
	args, err := ParseArgs(`VERIFY "Acme"`, "verify")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, args)
}
