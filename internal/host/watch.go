package host

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/govim/vimcore/internal/log"
)

const debounce = 150 * time.Millisecond

// Watcher debounces fsnotify writes to a single file, grounded on the
// teacher's database watcher but narrowed from a directory of db/wal
// files down to the one edited file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	onChange  chan struct{}
}

type fileChangedMsg struct{}
type watcherStartedMsg struct{ watcher *Watcher }
type watcherErrorMsg struct{ err error }

// startWatching returns a tea.Cmd that sets up an fsnotify watch on the
// directory containing path (watching the directory, not the file
// directly, survives editors that replace the file via rename-on-save).
func startWatching(path string) tea.Cmd {
	return func() tea.Msg {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			log.ErrorErr(log.CatWatcher, "failed to create fsnotify watcher", err)
			return watcherErrorMsg{err}
		}
		dir := filepath.Dir(path)
		if err := fsw.Add(dir); err != nil {
			log.ErrorErr(log.CatWatcher, "failed to watch directory", err, "dir", dir)
			return watcherErrorMsg{err}
		}
		w := &Watcher{fsWatcher: fsw, path: path, onChange: make(chan struct{}, 1)}
		go w.loop()
		log.Info(log.CatWatcher, "started watching", "dir", dir)
		return watcherStartedMsg{w}
	}
}

func (w *Watcher) loop() {
	var timer *time.Timer
	pending := false
	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			pending = true

		case <-timerChan(timer):
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// watchNext returns a tea.Cmd that blocks for the watcher's next
// debounced change notification.
func watchNext(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.onChange
		return fileChangedMsg{}
	}
}
