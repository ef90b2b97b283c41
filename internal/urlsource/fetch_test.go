package urlsource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRepoURLRecognizesKnownHosts(t *testing.T) {
	require.True(t, IsRepoURL("https://github.com/owner/repo"))
	require.True(t, IsRepoURL("https://gitlab.com/owner/repo"))
	require.False(t, IsRepoURL("https://example.com/blog/post"))
}

func TestRepoOverviewMentionsURL(t *testing.T) {
	out := RepoOverview("https://github.com/owner/repo")
	require.Contains(t, out, "https://github.com/owner/repo")
}
