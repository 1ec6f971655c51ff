package domain

// Trigger defaults, applied when an input is left empty.
const (
	DefaultBranch    = "main"
	DefaultTagSuffix = "manual"
)

// BuildRequest is the set of inputs a manual build is triggered with.
// It is immutable for the duration of a run.
type BuildRequest struct {
	Branch    string `json:"branch" yaml:"branch"`
	CommitSHA string `json:"commit_sha" yaml:"commit_sha"`
	TagSuffix string `json:"tag_suffix" yaml:"tag_suffix"`
	PushImage bool   `json:"push_image" yaml:"push_image"`
}

// DefaultBuildRequest returns the request a trigger produces when no input is changed.
func DefaultBuildRequest() BuildRequest {
	return BuildRequest{
		Branch:    DefaultBranch,
		TagSuffix: DefaultTagSuffix,
		PushImage: true,
	}
}

// WithDefaults fills empty string inputs with their trigger defaults.
// PushImage is left untouched since false is a meaningful choice.
func (r BuildRequest) WithDefaults() BuildRequest {
	if r.Branch == "" {
		r.Branch = DefaultBranch
	}
	if r.TagSuffix == "" {
		r.TagSuffix = DefaultTagSuffix
	}
	return r
}

// Pinned reports whether the request targets a specific commit rather than a branch tip.
func (r BuildRequest) Pinned() bool {
	return r.CommitSHA != ""
}

// CheckoutRef returns the reference to check out: the commit when pinned, the branch otherwise.
func (r BuildRequest) CheckoutRef() string {
	if r.Pinned() {
		return r.CommitSHA
	}
	return r.Branch
}

// Ref returns the revision to check out, keeping whether it names a commit or a branch.
func (r BuildRequest) Ref() Ref {
	if r.Pinned() {
		return Ref{Commit: r.CommitSHA}
	}
	return Ref{Branch: r.Branch}
}
