package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInScope(t *testing.T) {
	u, _ := url.Parse("https://sub.a.test/x")
	assert.True(t, isInScope(u, "a.test", true))
	assert.False(t, isInScope(u, "a.test", false))

	same, _ := url.Parse("https://a.test/y")
	assert.True(t, isInScope(same, "a.test", false))

	ftp, _ := url.Parse("ftp://a.test/y")
	assert.False(t, isInScope(ftp, "a.test", false))
}

func TestResolveLinkRelative(t *testing.T) {
	resolved, err := resolveLink("https://a.test/dir/page", "../other")
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/other", resolved.String())
}

func TestResolveLinkAbsolute(t *testing.T) {
	resolved, err := resolveLink("https://a.test/dir/page", "https://b.test/x")
	require.NoError(t, err)
	assert.Equal(t, "https://b.test/x", resolved.String())
}
