package domain

// ShortSHALength matches git's default abbreviation.
const ShortSHALength = 7

// Commit is the identity of the checked out revision.
type Commit struct {
	FullSHA  string `json:"full_sha" yaml:"full_sha"`
	ShortSHA string `json:"short_sha" yaml:"short_sha"`
}

// NewCommit builds a Commit from a full hash.
func NewCommit(full string) Commit {
	return Commit{FullSHA: full, ShortSHA: ShortSHA(full)}
}

// ShortSHA abbreviates a hash to ShortSHALength characters.
func ShortSHA(full string) string {
	if len(full) <= ShortSHALength {
		return full
	}
	return full[:ShortSHALength]
}

// Ref names a revision to check out. Exactly one of Commit or Branch is used:
// a non-empty Commit is a (possibly abbreviated) hash and is never looked up as a branch.
type Ref struct {
	Branch string
	Commit string
}

// Pinned reports whether the ref names a commit.
func (r Ref) Pinned() bool {
	return r.Commit != ""
}

// Empty reports whether the ref names nothing.
func (r Ref) Empty() bool {
	return r.Commit == "" && r.Branch == ""
}

func (r Ref) String() string {
	if r.Pinned() {
		return r.Commit
	}
	return r.Branch
}

// Checkout is a working tree positioned at a resolved commit.
type Checkout struct {
	Dir    string
	Ref    Ref
	Commit Commit

	// Temporary is set when Dir was created for this checkout and must be removed on release.
	Temporary bool
}
