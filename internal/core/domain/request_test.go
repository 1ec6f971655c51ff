package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestDefaultBuildRequest(t *testing.T) {
	req := DefaultBuildRequest()
	assert.Equal(t, "main", req.Branch)
	assert.Equal(t, "", req.CommitSHA)
	assert.Equal(t, "manual", req.TagSuffix)
	assert.True(t, req.PushImage)
}

func TestWithDefaults_KeepsPushImage(t *testing.T) {
	req := BuildRequest{PushImage: false}.WithDefaults()
	assert.Equal(t, "main", req.Branch)
	assert.Equal(t, "manual", req.TagSuffix)
	assert.False(t, req.PushImage)

	req = BuildRequest{Branch: "dev", TagSuffix: "h100"}.WithDefaults()
	assert.Equal(t, "dev", req.Branch)
	assert.Equal(t, "h100", req.TagSuffix)
}

func TestCheckoutRef_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("checkout ref is the commit when pinned, the branch otherwise", prop.ForAll(
		func(branch, commit string) bool {
			req := BuildRequest{Branch: branch, CommitSHA: commit}
			ref := req.Ref()
			if ref.String() != req.CheckoutRef() || ref.Pinned() != req.Pinned() {
				return false
			}
			if commit != "" {
				return req.Pinned() && req.CheckoutRef() == commit && ref.Branch == ""
			}
			return !req.Pinned() && req.CheckoutRef() == branch && ref.Commit == ""
		},
		gen.AlphaString(),
		gen.OneGenOf(gen.Const(""), gen.RegexMatch(`[0-9a-f]{40}`)),
	))

	properties.TestingRun(t)
}

func TestRef_HexLikeBranchStaysBranch(t *testing.T) {
	ref := BuildRequest{Branch: "deadbeef"}.Ref()
	assert.False(t, ref.Pinned())
	assert.Equal(t, "deadbeef", ref.Branch)
	assert.Equal(t, "", ref.Commit)

	assert.True(t, Ref{}.Empty())
	assert.False(t, Ref{Commit: "abc1234"}.Empty())
}

func TestNewCommit(t *testing.T) {
	c := NewCommit("0123456789abcdef0123456789abcdef01234567")
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", c.FullSHA)
	assert.Equal(t, "0123456", c.ShortSHA)

	assert.Equal(t, "abc", ShortSHA("abc"))
}

func TestLabels(t *testing.T) {
	created := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	req := BuildRequest{Branch: "main", TagSuffix: "test"}
	labels := Labels(req, NewCommit("0123456789abcdef0123456789abcdef01234567"), "", created)

	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", labels[LabelRevision])
	assert.Equal(t, "main", labels[LabelRefName])
	assert.Equal(t, "2026-10-18T12:00:00Z", labels[LabelCreated])
	assert.NotContains(t, labels, LabelSource)

	labels = Labels(req, NewCommit("abc"), "https://github.com/acme/trainer", created)
	assert.Equal(t, "https://github.com/acme/trainer", labels[LabelSource])
}

func TestStepError(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", &StepError{Step: StepLogin, Err: ErrMissingCredentials})

	assert.True(t, errors.Is(err, ErrMissingCredentials))
	step, ok := FailedStep(err)
	assert.True(t, ok)
	assert.Equal(t, StepLogin, step)
	assert.Contains(t, err.Error(), "login failed")

	_, ok = FailedStep(errors.New("plain"))
	assert.False(t, ok)
}
