package scraper

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// BrowserSession 浏览器自动化引擎的一个会话槽位
type BrowserSession struct {
	ID       string
	Endpoint string
}

// BrowserPool 固定大小的浏览器会话池
// 带缓冲通道同时充当信号量和轮转队列：取出即占用，归还追加到队尾，
// 复用时不做健康检查
type BrowserPool struct {
	sessions chan *BrowserSession
	size     int
}

// NewBrowserPool 创建会话池，所有会话指向同一个引擎端点
func NewBrowserPool(endpoint string, size int) (*BrowserPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("会话池容量必须为正: %d", size)
	}

	pool := &BrowserPool{
		sessions: make(chan *BrowserSession, size),
		size:     size,
	}
	for i := 0; i < size; i++ {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("生成会话ID失败: %w", err)
		}
		pool.sessions <- &BrowserSession{ID: id.String(), Endpoint: endpoint}
	}
	return pool, nil
}

// Acquire 取一个会话，池空时阻塞直到有会话归还或上下文取消
func (p *BrowserPool) Acquire(ctx context.Context) (*BrowserSession, error) {
	select {
	case s := <-p.sessions:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release 归还会话
func (p *BrowserPool) Release(s *BrowserSession) {
	if s == nil {
		return
	}
	select {
	case p.sessions <- s:
	default:
		// 池已满说明重复归还，直接丢弃
	}
}

// Size 池容量
func (p *BrowserPool) Size() int {
	return p.size
}

// Available 当前空闲会话数
func (p *BrowserPool) Available() int {
	return len(p.sessions)
}
