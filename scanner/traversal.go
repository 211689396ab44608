package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"carbonlint/utils"
)

// treeWalker visits every entry below root depth first, in lexical order.
// Directories for which prune returns true are never read. Symlinks are
// handed to visit as non-directories, so linked trees are not followed.
type treeWalker struct {
	root string
	// prune reports entries to drop. A pruned directory is not descended.
	prune func(rel string, d fs.DirEntry) bool
	// visit receives every entry that is not pruned and not a directory.
	visit func(path, rel string, d fs.DirEntry) error
	// unreadable receives directories whose listing failed.
	unreadable func(path string, err error)
}

type walkItem struct {
	path string
	rel  string
	dir  bool
	d    fs.DirEntry
}

func (w treeWalker) walk(ctx context.Context) error {
	pending := []walkItem{{path: w.root, rel: ".", dir: true}}
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if !next.dir {
			if err := w.visit(next.path, next.rel, next.d); err != nil {
				return err
			}
			continue
		}

		entries, err := os.ReadDir(next.path)
		if err != nil {
			if w.unreadable != nil {
				w.unreadable(next.path, err)
			}
			continue
		}
		// Push in reverse so the stack pops entries in lexical order.
		for i := len(entries) - 1; i >= 0; i-- {
			d := entries[i]
			path := filepath.Join(next.path, d.Name())
			rel := utils.RelativePath(w.root, path)
			if w.prune != nil && w.prune(rel, d) {
				continue
			}
			pending = append(pending, walkItem{path: path, rel: rel, dir: d.IsDir(), d: d})
		}
	}
	return nil
}
