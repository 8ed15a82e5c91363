package api

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ServerInfo снимок состояния процесса и цикла симуляции для /api/server
type ServerInfo struct {
	Name       string  `json:"name"`
	Uptime     string  `json:"uptime"`
	Tick       uint64  `json:"tick"`
	TickRate   float64 `json:"tick_rate"` // фактических тиков в секунду с момента старта
	Paused     bool    `json:"paused"`
	HeapMB     float64 `json:"heap_mb"`
	RSSMB      float64 `json:"rss_mb,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	Goroutines int     `json:"goroutines"`
	NumGC      uint32  `json:"num_gc"`
}

// ServerMetrics считает показатели процесса через gopsutil
type ServerMetrics struct {
	startTime time.Time
	proc      *process.Process // nil, если процесс недоступен (например, в песочнице)
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{startTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// Snapshot собирает ServerInfo; tick и paused берутся из цикла симуляции
func (sm *ServerMetrics) Snapshot(tick uint64, paused bool) ServerInfo {
	uptime := time.Since(sm.startTime)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := ServerInfo{
		Name:       "voxel-sandbox",
		Uptime:     uptime.Round(time.Second).String(),
		Tick:       tick,
		Paused:     paused,
		HeapMB:     round1(float64(m.HeapAlloc) / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}
	if secs := uptime.Seconds(); secs > 0 {
		info.TickRate = round1(float64(tick) / secs)
	}

	if sm.proc != nil {
		if mem, err := sm.proc.MemoryInfo(); err == nil {
			info.RSSMB = round1(float64(mem.RSS) / 1024 / 1024)
		}
		if cpu, err := sm.proc.CPUPercent(); err == nil {
			info.CPUPercent = round1(cpu)
		}
	}
	return info
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
