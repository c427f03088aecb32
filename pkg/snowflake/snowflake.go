package snowflake

import (
	"errors"
	"sync"
	"time"
)

// 视频、动态、评论共用一个ID空间，所以ID必须全局唯一；雪花ID按时间递增，也能当作插入顺序用
const (
	epoch          = int64(1704067200000) // 起始时间戳 (2024-01-01)
	workerIDBits   = uint(10)
	sequenceBits   = uint(12)
	maxWorkerID    = int64(-1 ^ (-1 << workerIDBits))
	maxSequence    = int64(-1 ^ (-1 << sequenceBits))
	timestampShift = sequenceBits + workerIDBits
	workerIDShift  = sequenceBits
)

var ErrWorkerIDOutOfRange = errors.New("snowflake: worker id out of range")

// Node 单个进程内的ID生成器
type Node struct {
	mu       sync.Mutex
	lastTime int64
	workerID int64
	sequence int64
}

func NewNode(workerID int64) (*Node, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrWorkerIDOutOfRange
	}
	return &Node{workerID: workerID}, nil
}

// Generate 生成唯一ID：同一毫秒内用序列号区分，序列号用完就等到下一毫秒
func (n *Node) Generate() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < n.lastTime {
		// 时钟回拨，继续沿用上一次的时间戳
		now = n.lastTime
	}
	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & maxSequence
		if n.sequence == 0 {
			for now <= n.lastTime {
				time.Sleep(100 * time.Microsecond)
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.sequence = 0
	}
	n.lastTime = now

	return uint64((now-epoch)<<timestampShift | n.workerID<<workerIDShift | n.sequence)
}

var (
	defaultMu   sync.RWMutex
	defaultNode = &Node{workerID: 1}
)

// SetWorker 进程启动时按配置设置worker编号，多实例部署时必须互不相同
func SetWorker(workerID int64) error {
	node, err := NewNode(workerID)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultNode = node
	defaultMu.Unlock()
	return nil
}

// NextID 使用默认生成器
func NextID() uint64 {
	defaultMu.RLock()
	node := defaultNode
	defaultMu.RUnlock()
	return node.Generate()
}
