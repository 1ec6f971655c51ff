package domain

import (
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
)

// DeriveTags returns the ordered tag set for a request built at shortSHA.
//
// The floating latest-<suffix> tag is only produced for the tip of main; a pinned
// commit on main must never move it.
func DeriveTags(req BuildRequest, shortSHA string) []string {
	base := req.Branch + "-" + req.TagSuffix
	tags := []string{
		base,
		base + "-" + shortSHA,
	}
	if req.Branch == DefaultBranch && !req.Pinned() {
		tags = append(tags, "latest-"+req.TagSuffix)
	}
	return tags
}

// ImageReferences qualifies every tag with the image repository and validates the result.
func ImageReferences(repository string, tags []string) ([]string, error) {
	repo, err := name.NewRepository(repository)
	if err != nil {
		return nil, fmt.Errorf("%w: repository %q: %v", ErrInvalidTag, repository, err)
	}

	refs := make([]string, 0, len(tags))
	for _, t := range tags {
		tag, err := name.NewTag(repo.Name() + ":" + t)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTag, t, err)
		}
		// a tag containing "/" parses as part of the repository instead of failing
		if tag.TagStr() != t {
			return nil, fmt.Errorf("%w: %q is not a valid tag", ErrInvalidTag, t)
		}
		refs = append(refs, tag.String())
	}
	return refs, nil
}

// CacheReference returns the fixed cache reference for an image repository.
func CacheReference(repository, cacheTag string) (string, error) {
	refs, err := ImageReferences(repository, []string{cacheTag})
	if err != nil {
		return "", err
	}
	return refs[0], nil
}

// RegistryHost returns the registry an image repository lives in.
func RegistryHost(repository string) (string, error) {
	repo, err := name.NewRepository(repository)
	if err != nil {
		return "", errors.Join(ErrInvalidTag, err)
	}
	return repo.RegistryStr(), nil
}
