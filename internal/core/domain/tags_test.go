package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDeriveTags(t *testing.T) {
	tests := []struct {
		name     string
		req      BuildRequest
		shortSHA string
		want     []string
	}{
		{
			name:     "tip of main gets latest",
			req:      BuildRequest{Branch: "main", TagSuffix: "test"},
			shortSHA: "abc1234",
			want:     []string{"main-test", "main-test-abc1234", "latest-test"},
		},
		{
			name:     "pinned commit on main skips latest",
			req:      BuildRequest{Branch: "main", TagSuffix: "b200", CommitSHA: "deadbeefcafebabe0123456789abcdef01234567"},
			shortSHA: "deadbee",
			want:     []string{"main-b200", "main-b200-deadbee"},
		},
		{
			name:     "feature branch with default suffix",
			req:      BuildRequest{Branch: "feature-x"}.WithDefaults(),
			shortSHA: "0f1e2d3",
			want:     []string{"feature-x-manual", "feature-x-manual-0f1e2d3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTags(tt.req, tt.shortSHA))
		})
	}
}

func TestDeriveTags_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		req := BuildRequest{
			Branch:    rapid.SampledFrom([]string{"main", "dev", "feature-x", "release-1.2"}).Draw(t, "branch"),
			CommitSHA: rapid.SampledFrom([]string{"", "deadbeefcafe"}).Draw(t, "commit"),
			TagSuffix: rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, "suffix"),
			PushImage: rapid.Bool().Draw(t, "push"),
		}
		short := rapid.StringMatching(`[0-9a-f]{7}`).Draw(t, "short")

		first := DeriveTags(req, short)
		second := DeriveTags(req, short)
		if strings.Join(first, ",") != strings.Join(second, ",") {
			t.Fatalf("derivation is not deterministic: %v vs %v", first, second)
		}

		if first[0] != req.Branch+"-"+req.TagSuffix {
			t.Fatalf("unexpected first tag %q", first[0])
		}
		if first[1] != first[0]+"-"+short {
			t.Fatalf("unexpected second tag %q", first[1])
		}

		wantLatest := req.Branch == "main" && req.CommitSHA == ""
		hasLatest := len(first) == 3 && first[2] == "latest-"+req.TagSuffix
		if wantLatest != hasLatest {
			t.Fatalf("latest tag presence = %v, want %v (tags %v)", hasLatest, wantLatest, first)
		}
		if !wantLatest && len(first) != 2 {
			t.Fatalf("expected 2 tags, got %v", first)
		}
	})
}

func TestImageReferences(t *testing.T) {
	refs, err := ImageReferences("ghcr.io/acme/trainer", []string{"main-test", "main-test-abc1234", "latest-test"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ghcr.io/acme/trainer:main-test",
		"ghcr.io/acme/trainer:main-test-abc1234",
		"ghcr.io/acme/trainer:latest-test",
	}, refs)
}

func TestImageReferences_InvalidTag(t *testing.T) {
	_, err := ImageReferences("ghcr.io/acme/trainer", DeriveTags(BuildRequest{Branch: "feature/x", TagSuffix: "manual"}, "abc1234"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestImageReferences_InvalidRepository(t *testing.T) {
	_, err := ImageReferences("ghcr.io/Acme/Trainer", []string{"main-manual"})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestCacheReference(t *testing.T) {
	ref, err := CacheReference("ghcr.io/acme/trainer", "buildcache")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/acme/trainer:buildcache", ref)
}

func TestRegistryHost(t *testing.T) {
	host, err := RegistryHost("ghcr.io/acme/trainer")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io", host)

	host, err = RegistryHost("localhost:5000/trainer")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000", host)
}
