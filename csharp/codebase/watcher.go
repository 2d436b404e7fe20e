package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var watchLog = commonlog.GetLogger("sharp.watch")

// Change reports a file that was parsed again or removed. Info is nil for
// removed files.
type Change struct {
	Path string
	Info *FileInfo
}

// FileWatcher keeps a codebase in sync with the file system. fsnotify does
// not watch recursively, so every directory below the root is added, and
// directories created later are added as they appear.
type FileWatcher struct {
	codebase *Codebase
	w        *fsnotify.Watcher
	changes  chan Change
}

func NewFileWatcher(c *Codebase) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	fw := &FileWatcher{
		codebase: c,
		w:        w,
		changes:  make(chan Change, 64),
	}
	if _, err := fw.addTree(c.RootDir(), false); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// Changes delivers one value per parsed or removed file. It is closed when
// Run returns.
func (fw *FileWatcher) Changes() <-chan Change {
	return fw.changes
}

// Run handles events until ctx is done or the watcher fails.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer close(fw.changes)
	defer fw.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			for _, change := range fw.handle(ev) {
				select {
				case fw.changes <- change:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", fw.codebase.RootDir(), err)
		}
	}
}

func (fw *FileWatcher) handle(ev fsnotify.Event) []Change {
	watchLog.Debugf("%s", ev)
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return fw.remove(ev.Name)
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return nil
	}
	st, err := os.Stat(ev.Name)
	if err != nil {
		return nil
	}
	if st.IsDir() {
		if ev.Op&fsnotify.Create == 0 || skipDir(st.Name()) {
			return nil
		}
		// Files can arrive together with their directory, before it is
		// watched.
		changes, err := fw.addTree(ev.Name, true)
		if err != nil {
			watchLog.Warningf("%s", err)
		}
		return changes
	}
	if change, ok := fw.scan(ev.Name); ok {
		return []Change{change}
	}
	return nil
}

// remove drops path, or every file below it when path was a directory.
func (fw *FileWatcher) remove(path string) []Change {
	if fw.codebase.GetFile(path) != nil {
		fw.codebase.RemoveFile(path)
		return []Change{{Path: path}}
	}
	var changes []Change
	for _, removed := range fw.codebase.RemoveTree(path) {
		changes = append(changes, Change{Path: removed})
	}
	if len(changes) > 0 {
		// A renamed directory stays watched under its old name.
		fw.w.Remove(path)
	}
	return changes
}

func (fw *FileWatcher) scan(path string) (Change, bool) {
	if !fw.codebase.Config().Matches(path) {
		return Change{}, false
	}
	info, err := fw.codebase.ScanFile(path)
	if err != nil {
		watchLog.Warningf("%s", err)
		return Change{}, false
	}
	return Change{Path: path, Info: info}, true
}

// addTree watches root and every directory below it. With scan set, the
// source files found on the way are parsed too.
func (fw *FileWatcher) addTree(root string, scan bool) ([]Change, error) {
	var changes []Change
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if scan {
				if change, ok := fw.scan(path); ok {
					changes = append(changes, change)
				}
			}
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	return changes, err
}
