package application

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainService.EndpointProvider = (*UpstreamPool)(nil)

// UpstreamPool keeps track of which upstream RPC endpoints of the target chain are healthy.
// Until the first check completes every configured endpoint is handed out.
type UpstreamPool struct {
	chain      entity.TargetChain
	rpcChecker domainService.RPCChecker
	logger     *zap.Logger
	cfg        config.UpstreamConfig
	rootCtx    context.Context
	isChecking *atomic.Bool
	healthy    atomic.Pointer[[]entity.RPCURL]
	mu         sync.RWMutex
}

// NewUpstreamPool creates a pool over rpcs of chainID.
func NewUpstreamPool(
	rootCtx context.Context,
	chainID uint64,
	rpcs []entity.RPCURL,
	rpcChecker domainService.RPCChecker,
	logger *zap.Logger,
	cfg config.UpstreamConfig,
) *UpstreamPool {
	p := &UpstreamPool{
		chain:      entity.TargetChain{ChainID: chainID, RPC: rpcs},
		rpcChecker: rpcChecker,
		logger:     logger.Named("UpstreamPool"),
		cfg:        cfg,
		rootCtx:    rootCtx,
		isChecking: new(atomic.Bool),
	}
	initial := append([]entity.RPCURL(nil), rpcs...)
	p.healthy.Store(&initial)
	return p
}

// Start runs an initial check when configured and then re-checks on every interval until the
// root context is done.
func (p *UpstreamPool) Start() {
	if p.cfg.RunOnStartup {
		p.Refresh(p.rootCtx)
	}
	go p.startBackgroundChecker()
}

// Endpoints returns the healthy endpoints ordered by latency.
func (p *UpstreamPool) Endpoints() []entity.RPCURL {
	return *p.healthy.Load()
}

// CheckedRPCs returns the details of the last completed check.
func (p *UpstreamPool) CheckedRPCs() []entity.RPCDetail {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]entity.RPCDetail(nil), p.chain.CheckedRPCs...)
}

// Refresh checks every endpoint and replaces the healthy set. If no endpoint is healthy the
// previous set is kept, so a flapping check does not empty the pool.
func (p *UpstreamPool) Refresh(ctx context.Context) {
	if !p.isChecking.CompareAndSwap(false, true) {
		p.logger.Debug("Upstream check already in progress, skipping")
		return
	}
	defer p.isChecking.Store(false)

	details := p.checkChainRPCs(ctx, p.cfg.GetTimeout(), p.chain.RPC)
	if ctx.Err() != nil {
		p.logger.Warn("Context cancelled during upstream check, healthy set not updated", zap.Error(ctx.Err()))
		return
	}

	working := make([]entity.RPCDetail, 0, len(details))
	for _, d := range details {
		if d.Working() {
			working = append(working, d)
		}
	}
	sort.SliceStable(working, func(i, j int) bool {
		return *working[i].LatencyMs < *working[j].LatencyMs
	})

	p.mu.Lock()
	p.chain.CheckedRPCs = details
	p.mu.Unlock()

	if len(working) == 0 {
		p.logger.Warn("No healthy upstream RPC found, keeping previous set",
			zap.Uint64("chainId", p.chain.ChainID), zap.Int("checked", len(details)))
		return
	}

	healthy := make([]entity.RPCURL, len(working))
	for i, d := range working {
		healthy[i] = d.URL
	}
	p.healthy.Store(&healthy)
	p.logger.Info("Upstream check finished",
		zap.Uint64("chainId", p.chain.ChainID),
		zap.Int("healthy", len(healthy)),
		zap.Int("checked", len(details)),
	)
}

// checkChainRPCs performs parallel RPC checks for a given list of RPC URLs and returns their details.
func (p *UpstreamPool) checkChainRPCs(ctx context.Context, timeout time.Duration, rpcs []entity.RPCURL) []entity.RPCDetail {
	if len(rpcs) == 0 {
		return nil
	}

	checkedRPCDetails := make([]entity.RPCDetail, len(rpcs))
	var wg sync.WaitGroup

	numWorkers := p.cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if len(rpcs) < numWorkers {
		numWorkers = len(rpcs)
	}

	jobChan := make(chan struct {
		index int
		url   entity.RPCURL
	}, len(rpcs))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.logger.Debug("Starting RPC check worker", zap.Int("workerID", workerID))
			for job := range jobChan {
				detail := entity.RPCDetail{URL: job.url, Protocol: job.url.Protocol()}
				notWorking := false
				if detail.Protocol == entity.ProtocolUnknown {
					detail.IsWorking = &notWorking
					checkedRPCDetails[job.index] = detail
					p.logger.Error("RPCURL with unknown protocol encountered", zap.String("url", job.url.String()))
					continue
				}

				checkCtx, cancel := context.WithTimeout(ctx, timeout)
				isWorking, latency, err := p.rpcChecker.CheckRPC(checkCtx, job.url, p.chain.ChainID)
				cancel()

				if err != nil {
					p.logger.Debug("RPC check failed", zap.String("rpc", job.url.String()), zap.Error(err))
					detail.IsWorking = &notWorking
				} else {
					detail.IsWorking = &isWorking
					if isWorking {
						latencyMs := latency.Milliseconds()
						detail.LatencyMs = &latencyMs
						p.logger.Debug("RPC is working",
							zap.String("rpc", job.url.String()), zap.Duration("latency", latency),
						)
					}
				}
				checkedRPCDetails[job.index] = detail
			}
		}(w)
	}

	for i, rpcURL := range rpcs {
		jobChan <- struct {
			index int
			url   entity.RPCURL
		}{index: i, url: rpcURL}
	}
	close(jobChan)

	wg.Wait()
	return checkedRPCDetails
}

// startBackgroundChecker re-checks the endpoints on every tick.
func (p *UpstreamPool) startBackgroundChecker() {
	interval := p.cfg.GetCheckInterval()
	if interval <= 0 {
		p.logger.Info("Background checker disabled (interval <= 0)")
		return
	}

	p.logger.Info("Starting background checker", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Refresh(p.rootCtx)
		case <-p.rootCtx.Done():
			p.logger.Info("Background checker stopping due to context cancellation.")
			return
		}
	}
}
