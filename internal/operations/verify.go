package operations

import (
	"fmt"

	"github.com/blackwell-systems/stashctl/internal/errs"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Issue kinds found by Verify.
const (
	IssueMissingRecord     = "missing_record"     // indexed, no record files
	IssueOrphanRecord      = "orphan_record"      // record files, not indexed
	IssueDuplicate         = "duplicate"          // id listed more than once
	IssueMissingFull       = "missing_full"       // light variant without full variant
	IssueMissingLight      = "missing_light"      // full variant without light variant
	IssueDanglingThumbnail = "dangling_thumbnail" // thumbnail file is gone
	IssueMissingImage      = "missing_image"      // image file is gone
)

// Issue is one inconsistency between the index, the records and the
// image directory.
type Issue struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Detail string `json:"detail"`
	Fixed  bool   `json:"fixed"`
}

// Verify checks that the index and the record pairs agree and that the
// assets referenced by records exist. With fix set, it repairs what it can:
// the index is rebuilt, missing variants are regenerated and dangling
// references are dropped.
func (s *Service) Verify(fix bool) ([]Issue, error) {
	ids, err := s.index.List()
	if err != nil {
		return nil, err
	}
	onDisk, err := s.store.IDs()
	if err != nil {
		return nil, err
	}
	recorded := make(map[string]bool, len(onDisk))
	for _, id := range onDisk {
		recorded[id] = true
	}

	var issues []Issue
	seen := map[string]bool{}
	var kept []string
	indexDirty := false

	for _, id := range ids {
		if seen[id] {
			issues = append(issues, Issue{Kind: IssueDuplicate, ID: id, Detail: "listed more than once in the index", Fixed: fix})
			indexDirty = true
			continue
		}
		seen[id] = true
		if !recorded[id] {
			issues = append(issues, Issue{Kind: IssueMissingRecord, ID: id, Detail: "in the index but has no record", Fixed: fix})
			indexDirty = true
			continue
		}
		kept = append(kept, id)
	}
	for _, id := range onDisk {
		if !seen[id] {
			issues = append(issues, Issue{Kind: IssueOrphanRecord, ID: id, Detail: "has a record but is not in the index", Fixed: fix})
			kept = append(kept, id)
			indexDirty = true
		}
	}

	for _, id := range onDisk {
		found, err := s.verifyRecord(id, fix)
		if err != nil {
			return issues, err
		}
		issues = append(issues, found...)
	}

	if fix && indexDirty {
		if err := s.index.Replace(kept); err != nil {
			return issues, err
		}
	}
	return issues, nil
}

func (s *Service) verifyRecord(id string, fix bool) ([]Issue, error) {
	var issues []Issue
	hasLight, hasFull := s.store.Exists(id), s.store.HasFull(id)

	// Prefer the full variant so a rewrite keeps originalContent.
	it, err := s.store.Read(id, hasFull)
	if err != nil {
		if errs.CodeOf(err) == errs.CodeInvalidInput {
			return []Issue{{Kind: IssueOrphanRecord, ID: id, Detail: err.Error()}}, nil
		}
		return nil, err
	}
	dirty := false

	if !hasFull {
		issues = append(issues, Issue{Kind: IssueMissingFull, ID: id, Detail: "no .full.json variant", Fixed: fix})
		dirty = true
	}
	if !hasLight {
		issues = append(issues, Issue{Kind: IssueMissingLight, ID: id, Detail: "no light .json variant", Fixed: fix})
		dirty = true
	}

	fs := s.layout.FS()
	if it.Thumbnail != nil {
		if local, ok := s.layout.LocalImagePath(*it.Thumbnail); ok && !stashutil.Exists(fs, local) {
			issues = append(issues, Issue{Kind: IssueDanglingThumbnail, ID: id, Detail: *it.Thumbnail, Fixed: fix})
			it.Thumbnail = nil
			dirty = true
		}
	}
	images := it.Images[:0:0]
	for _, img := range it.Images {
		if local, ok := s.layout.LocalImagePath(img); ok && !stashutil.Exists(fs, local) {
			issues = append(issues, Issue{Kind: IssueMissingImage, ID: id, Detail: img, Fixed: fix})
			dirty = true
			continue
		}
		images = append(images, img)
	}
	it.Images = images

	if fix && dirty {
		if err := s.store.Save(id, it); err != nil {
			return issues, fmt.Errorf("repair %s: %w", id, err)
		}
	}
	return issues, nil
}
