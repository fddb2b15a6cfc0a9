package spawner

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fyerfyer/fyer-pool/logger"
)

// DefaultReloadDelay 文件变更后等待的防抖时间
const DefaultReloadDelay = 200 * time.Millisecond

// Watcher 监视配置文件，文件变更并通过校验后把新配置发送到 Configs 通道。
// 通道只保留最新的一份配置。
type Watcher struct {
	path          string
	fsWatcher     *fsnotify.Watcher
	delay         time.Duration
	log           logger.Logger
	configs       chan Config
	debounceTimer *time.Timer
	mu            sync.Mutex
	started       bool
	stopping      bool
	closed        bool
	done          chan struct{}
}

// WatcherOption 定义 Watcher 的配置选项
type WatcherOption func(*Watcher)

// WithReloadDelay 设置防抖时间
func WithReloadDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		if delay > 0 {
			w.delay = delay
		}
	}
}

func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher 创建监视 path 的 Watcher
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("path resolution failed %s: %w", path, err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	w := &Watcher{
		path:      absPath,
		fsWatcher: fsWatcher,
		delay:     DefaultReloadDelay,
		log:       logger.GetDefaultLogger(),
		configs:   make(chan Config, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithField("config", absPath)
	return w, nil
}

// Start 开始监视。监视的是文件所在目录，编辑器以重命名方式保存文件时也能收到事件。
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errors.New("watcher started")
	}
	if w.closed {
		return errors.New("watcher closed")
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to add monitor path %s: %w", w.path, err)
	}

	w.started = true
	go w.watchEvents()
	return nil
}

// Stop 停止监视并关闭 Configs 通道。未启动时只释放底层的 fsnotify 监视器。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		defer w.mu.Unlock()
		if w.closed {
			return nil
		}
		w.closed = true
		if err := w.fsWatcher.Close(); err != nil {
			return fmt.Errorf("failed to close file system watcher: %w", err)
		}
		return nil
	}
	w.stopping = true
	w.closed = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.started = false
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	<-w.done
	close(w.configs)
	if err != nil {
		return fmt.Errorf("failed to close file system watcher: %w", err)
	}
	return nil
}

// Configs 返回新配置的通道，Stop 后关闭
func (w *Watcher) Configs() <-chan Config {
	return w.configs
}

func (w *Watcher) watchEvents() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", logger.FieldError(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// 权限变更和删除都不触发重新加载
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopping {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.log.Warn("config reload failed", logger.FieldError(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopping {
		return
	}

	// 丢弃尚未被消费的旧配置
	select {
	case <-w.configs:
	default:
	}
	w.configs <- cfg
	w.log.Info("config reloaded", logger.Int("instances", cfg.Instances), logger.Float64("speed", cfg.Speed))
}
