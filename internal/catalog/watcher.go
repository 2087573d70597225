package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监听目录文件，变更后重新加载
// 每次生成都通过 Current 取一次快照，运行期间不受后续重载影响
type Watcher struct {
	path    string
	log     *zap.Logger
	current atomic.Pointer[Catalog]
	fsw     *fsnotify.Watcher
	wg      sync.WaitGroup
	closed  chan struct{}
	once    sync.Once
}

// Watch 加载目录文件并开始监听所在目录
func Watch(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}
	// 监听目录而不是文件：编辑器保存时常用 rename 替换文件
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch catalog dir: %w", err)
	}

	w := &Watcher{
		path:   filepath.Clean(path),
		log:    log,
		fsw:    fsw,
		closed: make(chan struct{}),
	}
	w.current.Store(c)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Current 当前目录快照
func (w *Watcher) Current() *Catalog {
	return w.current.Load()
}

// Reload 立即重新加载，失败时保留旧目录
func (w *Watcher) Reload() error {
	c, err := Load(w.path)
	if err != nil {
		w.log.Warn("目录重新加载失败，继续使用旧目录", zap.String("path", w.path), zap.Error(err))
		return err
	}
	w.current.Store(c)
	w.log.Info("目录已重新加载", zap.String("path", w.path), zap.Int("courses", c.Len()))
	return nil
}

// Close 停止监听并等待后台 goroutine 退出
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closed)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closed:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				_ = w.Reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("目录监听出错", zap.Error(err))
		}
	}
}
