package domain

import "time"

// OCI annotation keys applied as image labels.
const (
	LabelRevision = "org.opencontainers.image.revision"
	LabelRefName  = "org.opencontainers.image.ref.name"
	LabelSource   = "org.opencontainers.image.source"
	LabelCreated  = "org.opencontainers.image.created"
)

// BuildSpec describes one image build.
type BuildSpec struct {
	ContextDir string
	Dockerfile string
	Tags       []string
	Labels     map[string]string
	CacheFrom  []string
}

// Credentials authenticate against a registry. The token is never logged.
type Credentials struct {
	Registry string
	Username string
	Token    string
}

// Empty reports whether no token is available.
func (c Credentials) Empty() bool {
	return c.Token == ""
}

// Labels returns the OCI labels for an image built from commit.
func Labels(req BuildRequest, commit Commit, source string, created time.Time) map[string]string {
	labels := map[string]string{
		LabelRevision: commit.FullSHA,
		LabelRefName:  req.Branch,
		LabelCreated:  created.UTC().Format(time.RFC3339),
	}
	if source != "" {
		labels[LabelSource] = source
	}
	return labels
}

// Report summarizes a finished run.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Branch    string        `json:"branch" yaml:"branch"`
	CommitSHA string        `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
	FullSHA   string        `json:"full_sha" yaml:"full_sha"`
	ShortSHA  string        `json:"short_sha" yaml:"short_sha"`
	Tags      []string      `json:"tags" yaml:"tags"`
	Images    []string      `json:"images" yaml:"images"`
	ImageID   string        `json:"image_id,omitempty" yaml:"image_id,omitempty"`
	Pushed    bool          `json:"pushed" yaml:"pushed"`
	CacheRef  string        `json:"cache_ref" yaml:"cache_ref"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}
