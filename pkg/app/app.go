package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/dbkit/pkg/logger"
)

// ErrAppAlreadyRunning Run 被重复调用
var ErrAppAlreadyRunning = errors.New("application already started")

// Application 应用骨架接口
type Application interface {
	Run() error
	Shutdown() error
	Logger(name string) logger.Logger
	AppLogger() logger.Logger
	SetAppLogger(l logger.Logger)
}

// Server 随应用启停的后台服务，Start 不得阻塞
type Server interface {
	Start() error
	Stop() error
}

// GracefulServer 支持优雅停止的服务，Shutdown 时优先于 Stop 使用
type GracefulServer interface {
	Server
	GracefulStop() error
}

// Closer 应用退出时需要释放的资源，如连接池注册表、指标客户端
type Closer interface {
	Close() error
}

// CloserFunc 把函数适配为 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// BaseApp Application 的默认实现
// 托管一组 Server 与 Closer: Run 顺序启动 Server 并阻塞等待退出，
// Shutdown 并发停止 Server，再按注册逆序关闭 Closer
type BaseApp struct {
	opts    Options
	logger  logger.Logger
	loggers *LoggerRegistry

	mu      sync.RWMutex
	servers []Server
	closers []Closer

	ctx    context.Context
	cancel context.CancelFunc

	started atomic.Bool
	stopped atomic.Bool
}

// NewBaseApp 创建应用实例
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}

	log := o.Logger
	if o.LogConfig != nil {
		if built, err := logger.New(o.LogConfig); err == nil {
			log = built
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BaseApp{
		opts:    o,
		logger:  log.Named(o.Name),
		loggers: NewLoggerRegistry(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetAppLogger 替换应用主日志
func (a *BaseApp) SetAppLogger(l logger.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = l
}

// AppLogger 返回应用主日志
func (a *BaseApp) AppLogger() logger.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// Logger 返回具名 Logger，未注册时为 nil
func (a *BaseApp) Logger(name string) logger.Logger {
	return a.loggers.Get(name)
}

// RegisterLogger 登记具名 Logger
func (a *BaseApp) RegisterLogger(name string, l logger.Logger) {
	a.loggers.Register(name, l)
}

// AppendServer 追加随应用启停的服务
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 追加退出时关闭的资源
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}

// Run 启动全部 Server 并阻塞，直到收到退出信号或 Shutdown 被调用
func (a *BaseApp) Run() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}
	log := a.AppLogger()

	if len(a.opts.NamedLoggers) > 0 {
		if err := a.loggers.InitLoggers(a.opts.NamedLoggers); err != nil {
			log.Error("named logger init failed", "error", err)
			return err
		}
	}

	info := GetInfo()
	fmt.Println(info.String())
	log.Info("starting",
		"version", info.Version,
		"commit", info.GitCommit,
		"go", info.GoVersion,
		"id", a.opts.ID,
	)

	for _, srv := range a.snapshotServers() {
		if err := srv.Start(); err != nil {
			log.Error("server start failed", "error", err)
			return err
		}
	}

	log.Info("stopping", "reason", a.wait())
	return a.Shutdown()
}

// wait 阻塞到退出信号或 cancel，返回触发原因
func (a *BaseApp) wait() string {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		return sig.String()
	case <-a.ctx.Done():
		return "shutdown requested"
	}
}

// Shutdown 停止应用，重复调用只生效一次
func (a *BaseApp) Shutdown() error {
	if !a.stopped.CompareAndSwap(false, true) {
		return nil
	}
	a.cancel()
	log := a.AppLogger()

	a.stopServers(log)

	// 晚注册的资源先释放
	closers := a.snapshotClosers()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Error("component close failed", "error", err)
		}
	}

	a.loggers.SyncAll()
	_ = log.Sync()
	return nil
}

// stopServers 并发停掉全部 Server，整体等待不超过 StopTimeout
func (a *BaseApp) stopServers(log logger.Logger) {
	servers := a.snapshotServers()
	if len(servers) == 0 {
		return
	}

	var g errgroup.Group
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if gs, ok := srv.(GracefulServer); ok {
				return gs.GracefulStop()
			}
			return srv.Stop()
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("server stop failed", "error", err)
		} else {
			log.Info("servers stopped")
		}
	case <-time.After(a.opts.StopTimeout):
		log.Warn("server stop timed out", "timeout", a.opts.StopTimeout)
	}
}

func (a *BaseApp) snapshotServers() []Server {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.servers)
}

func (a *BaseApp) snapshotClosers() []Closer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.closers)
}
