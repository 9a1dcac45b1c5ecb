package heartbeat

import (
	"sync"
)

// windowSize 滑动窗口容量：只保留最近5次成功探测的延迟
const windowSize = 5

// Sampler 维护每个节点最近成功探测延迟的滑动窗口，用于平滑1秒探测节奏
// 带来的抖动。窗口只存在于进程内存中，进程重启后从零开始积累；
// 节点一旦被观测到离线，窗口立即清空，平均值不会跨越一次故障期。
type Sampler struct {
	windows map[string][]float64
	mutex   sync.Mutex
}

// NewSampler 创建一个新的延迟采样器。
// 采样器由心跳调度器在启动时构造并持有，不是包级全局状态。
func NewSampler() *Sampler {
	return &Sampler{
		windows: make(map[string][]float64),
	}
}

// Record 追加一次成功探测的延迟读数，窗口满时淘汰最旧的读数
func (s *Sampler) Record(nodeID string, latencyMs float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	window := append(s.windows[nodeID], latencyMs)
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}
	s.windows[nodeID] = window
}

// Clear 清空某节点的滑动窗口。
// 节点探测失败时调用，避免故障前的旧读数影响恢复后的平均值。
func (s *Sampler) Clear(nodeID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.windows, nodeID)
}

// Average 计算某节点当前窗口内读数的算术平均值，
// 窗口为空时第二个返回值为false
func (s *Sampler) Average(nodeID string) (float64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	window := s.windows[nodeID]
	if len(window) == 0 {
		return 0, false
	}

	var sum float64
	for _, v := range window {
		sum += v
	}

	return sum / float64(len(window)), true
}
