package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"implantprofile/pkg/channel"
	"implantprofile/pkg/mask"
)

// Entry is one image set found on disk: its mask file and one image per
// requested channel, in channel order
type Entry struct {
	ImageID      string
	MaskPath     string
	ChannelPaths []string
}

// Discover walks root for mask files and pairs each with its channel
// images. The image id is the name of the directory holding the mask.
// Image sets lacking any channel are returned as drops, not entries, and
// so are subtrees that cannot be read. Only an unreadable root is an error.
func Discover(root string, channels, exts []string) ([]Entry, []Drop, error) {
	return DiscoverFS(os.DirFS(root), root, channels, exts)
}

// DiscoverFS is Discover over fsys. Returned paths are joined onto root.
func DiscoverFS(fsys fs.FS, root string, channels, exts []string) ([]Entry, []Drop, error) {
	toOS := func(p string) string {
		return filepath.Join(root, filepath.FromSlash(p))
	}

	var masks []string
	var drops []Drop
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			drops = append(drops, Drop{
				ImageID:  path.Base(p),
				MaskPath: toOS(p),
				Reason:   fmt.Errorf("%w: %v", ErrUnreadablePath, err),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), mask.MaskSuffix) {
			masks = append(masks, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	var entries []Entry
	for _, maskPath := range masks {
		dir := path.Dir(maskPath)
		entry := Entry{
			ImageID:  filepath.Base(toOS(dir)),
			MaskPath: toOS(maskPath),
		}

		var missing []string
		var walkErr error
		for _, ch := range channels {
			match, err := matchChannel(fsys, dir, ch, exts)
			if err != nil {
				walkErr = err
				break
			}
			if match == "" {
				missing = append(missing, ch)
				continue
			}
			entry.ChannelPaths = append(entry.ChannelPaths, toOS(match))
		}

		switch {
		case walkErr != nil:
			drops = append(drops, Drop{
				ImageID:  entry.ImageID,
				MaskPath: entry.MaskPath,
				Reason:   fmt.Errorf("%w: %v", ErrChannelFileMissing, walkErr),
			})
		case len(missing) > 0:
			drops = append(drops, Drop{
				ImageID:  entry.ImageID,
				MaskPath: entry.MaskPath,
				Reason:   fmt.Errorf("%w: no image for %s", ErrChannelFileMissing, strings.Join(missing, ", ")),
			})
		default:
			entries = append(entries, entry)
		}
	}

	return entries, drops, nil
}

// MatchChannel finds the image under dir whose file name contains
// identifier. When several files match, the lexicographically last path
// wins; this is deterministic but can surprise when identifiers overlap
// (e.g. "GFP" also matches "eGFP"). It returns "" when nothing matches.
func MatchChannel(dir, identifier string, exts []string) (string, error) {
	match, err := matchChannel(os.DirFS(dir), ".", identifier, exts)
	if err != nil || match == "" {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(match)), nil
}

func matchChannel(fsys fs.FS, dir, identifier string, exts []string) (string, error) {
	var matches []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.Contains(name, identifier) && channel.HasExtension(name, exts) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}

	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
