package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

func TestParse(t *testing.T) {
	t.Run("no command", func(t *testing.T) {
		_, found := Parse("just a regular comment")
		assert.False(t, found)
	})

	t.Run("bare command", func(t *testing.T) {
		out, found := Parse("/review")
		assert.True(t, found)
		assert.Nil(t, out.Focus)
		assert.Nil(t, out.MaxComments)
		assert.Nil(t, out.MinSeverity)
	})

	t.Run("space separated args", func(t *testing.T) {
		out, found := Parse("/review focus=security max_comments=6")
		require.True(t, found)
		require.NotNil(t, out.Focus)
		assert.Equal(t, "security", *out.Focus)
		require.NotNil(t, out.MaxComments)
		assert.Equal(t, 6, *out.MaxComments)
	})

	t.Run("comma separated args", func(t *testing.T) {
		out, found := Parse("/review focus=performance,min_severity=high")
		require.True(t, found)
		require.NotNil(t, out.Focus)
		assert.Equal(t, "performance", *out.Focus)
		require.NotNil(t, out.MinSeverity)
		assert.Equal(t, domain.SeverityHigh, *out.MinSeverity)
	})

	t.Run("case insensitive command and keys", func(t *testing.T) {
		out, found := Parse("please /Review FOCUS=tests")
		require.True(t, found)
		require.NotNil(t, out.Focus)
		assert.Equal(t, "tests", *out.Focus)
	})

	t.Run("only first line of args", func(t *testing.T) {
		out, found := Parse("/review focus=security\nmax_comments=9")
		require.True(t, found)
		assert.NotNil(t, out.Focus)
		assert.Nil(t, out.MaxComments)
	})

	t.Run("unknown severity normalizes to medium", func(t *testing.T) {
		out, found := Parse("/review min_severity=catastrophic")
		require.True(t, found)
		require.NotNil(t, out.MinSeverity)
		assert.Equal(t, domain.SeverityMedium, *out.MinSeverity)
	})

	t.Run("bad number ignored", func(t *testing.T) {
		out, found := Parse("/review max_comments=lots")
		require.True(t, found)
		assert.Nil(t, out.MaxComments)
	})

	t.Run("value with equals sign", func(t *testing.T) {
		out, found := Parse("/review focus=a=b")
		require.True(t, found)
		require.NotNil(t, out.Focus)
		assert.Equal(t, "a=b", *out.Focus)
	})
}
