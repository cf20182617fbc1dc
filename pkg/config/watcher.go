package config

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval 同一文件的事件合并窗口
const DebounceInterval = 100 * time.Millisecond

// Watcher 监听配置目录中 YAML 文件的变化
//
// Events 输出发生变化的文件路径。同一文件最后一次事件之后
// 安静 DebounceInterval 才输出一次，编辑器先截断再写入时只报告写完的文件。
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
	done    sync.WaitGroup
}

// NewWatcher 监听 dirs 中的所有目录
func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher: fw,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	w.done.Add(1)
	go w.run()
	return w, nil
}

// Close 停止监听并关闭输出通道
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.done.Wait()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

// settled 某个文件的第 gen 次事件已经安静了 DebounceInterval
type settled struct {
	path string
	gen  int
}

func (w *Watcher) run() {
	defer w.done.Done()

	gens := make(map[string]int)
	timers := make(map[string]*time.Timer)
	fire := make(chan settled)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isConfigFile(event.Name) {
				continue
			}
			path := event.Name
			gens[path]++
			gen := gens[path]
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(DebounceInterval, func() {
				select {
				case fire <- settled{path: path, gen: gen}:
				case <-w.closeCh:
				}
			})
		case s := <-fire:
			// 计时器停止前已触发的旧事件
			if gens[s.path] != s.gen {
				continue
			}
			delete(timers, s.path)
			select {
			case w.Events <- s.path:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isConfigFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
