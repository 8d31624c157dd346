package api

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc/rpcgraph"
	"github.com/rawblock/coinjoin-engine/internal/heuristics"
	"github.com/rawblock/coinjoin-engine/internal/ids"
	"github.com/rawblock/coinjoin-engine/internal/metrics"
)

// ════════════════════════════════════════════════════════════════════
// Pipeline API Handlers — runs the typed dataflow engine's heuristic
// catalog over an RPC-sourced corpus of transactions and exposes the
// resulting masks/clustering for retrieval.
// ════════════════════════════════════════════════════════════════════

// pipelineRun holds one RunToFixpoint invocation's registry and storage
// so its results can be queried after the request that started it returns.
type pipelineRun struct {
	id         string
	engine     *dataflow.Engine
	coinJoin   dataflow.Expr[dataflow.Mask[ids.TxID]]
	changeMask dataflow.Expr[dataflow.Mask[ids.OutID]]
	uih1       dataflow.Expr[dataflow.Mask[ids.OutID]]
	uih2       dataflow.Expr[dataflow.Mask[ids.TxID]]
	unilateral dataflow.Expr[dataflow.Mask[ids.TxID]]
	clustering dataflow.Expr[dataflow.Clustering[ids.OutID]]
	// sameAddrOnly is the same-address-clustering sub-signal alone, kept
	// around so /clusters/quality can score how much the rest of the
	// catalog (multi-input, change) added on top of this cheapest signal.
	sameAddrOnly dataflow.Expr[dataflow.Clustering[ids.OutID]]
	outs         dataflow.Expr[dataflow.TxOutSet[ids.OutID]]
}

// pipelineRegistry holds every run started this process's lifetime,
// keyed by its uuid. A run's engine and facts are kept in memory only —
// per PART C, run summaries (not raw node facts) are what get persisted
// to Postgres.
type pipelineRegistry struct {
	mu   sync.RWMutex
	runs map[string]*pipelineRun
}

func newPipelineRegistry() *pipelineRegistry {
	return &pipelineRegistry{runs: make(map[string]*pipelineRun)}
}

func (r *pipelineRegistry) put(run *pipelineRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.id] = run
}

func (r *pipelineRegistry) get(id string) (*pipelineRun, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	return run, ok
}

// POST /api/v1/pipeline/run
// Body: {"txids": ["<hex txid>", ...]}
// Resolves every txid against the Bitcoin Core RPC client, runs the full
// heuristic catalog to a fixpoint, and returns the new run's ID.
func (h *APIHandler) handlePipelineRun(c *gin.Context) {
	if h.btcClient == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Bitcoin RPC not configured"})
		return
	}

	var req struct {
		TxIDs []string `json:"txids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.TxIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one txid is required"})
		return
	}

	index := rpcgraph.New(h.btcClient)
	txs := make([]graphsrc.Tx, 0, len(req.TxIDs))
	for _, raw := range req.TxIDs {
		hash, err := chainhash.NewHashFromStr(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid txid %q", raw)})
			return
		}
		txID, err := index.ResolveTxID(hash)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to resolve %q: %v", raw, err)})
			return
		}
		tx, ok := index.Tx(txID)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("resolved but not found: %q", raw)})
			return
		}
		txs = append(txs, tx)
	}

	ctx := dataflow.NewContext()
	src := dataflow.NewAllTxsSource(ctx)
	allTxs := dataflow.NewTxsOf(ctx, src)
	outs := dataflow.NewOutputs(ctx, allTxs)

	coinJoin := heuristics.NewIsCoinJoin(ctx, allTxs)
	changeMask := dataflow.NewOr(ctx,
		heuristics.NewChangePositional(ctx, allTxs, coinJoin),
		heuristics.NewChangeFingerprint(ctx, allTxs, coinJoin),
	)
	global, unilateral := heuristics.BuildGlobalClustering(ctx, allTxs, outs, coinJoin, changeMask)
	sameAddrOnly := heuristics.NewSameAddressClustering(ctx, outs)
	uih1 := heuristics.NewUIH1(ctx, allTxs, coinJoin)
	uih2 := heuristics.NewUIH2(ctx, allTxs)

	corpus := graphsrc.NewCorpus(txs)
	engine := dataflow.NewEngine(ctx, corpus, index)
	if maxIter := os.Getenv("FIXPOINT_MAX_ITERATIONS"); maxIter != "" {
		if n, err := strconv.Atoi(maxIter); err == nil && n > 0 {
			engine.SetMaxIterations(n)
		}
	}

	runID := uuid.New().String()
	engine.OnIteration(func(iteration, nodesEvaluated int, progressed bool) {
		if h.wsHub != nil {
			h.wsHub.BroadcastProgress(runID, iteration, nodesEvaluated, progressed)
		}
	})

	engine.RunToFixpoint()

	run := &pipelineRun{
		id:           runID,
		engine:       engine,
		coinJoin:     coinJoin,
		changeMask:   changeMask,
		uih1:         uih1,
		uih2:         uih2,
		unilateral:   unilateral,
		clustering:   global,
		sameAddrOnly: sameAddrOnly,
		outs:         outs,
	}
	h.pipelineRuns.put(run)

	if h.dbStore != nil {
		txidStrs := make([]string, len(req.TxIDs))
		copy(txidStrs, req.TxIDs)
		if err := h.dbStore.SavePipelineRunSummary(c.Request.Context(), runID, txidStrs, engine.Iterations()); err != nil {
			// Logged, not fatal: the run already completed and is queryable
			// in-memory; persistence failing doesn't invalidate the result.
			fmt.Printf("[Pipeline] run %s: summary persist failed: %v\n", runID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"runId":      runID,
		"iterations": engine.Iterations(),
		"txCount":    len(txs),
	})
}

// GET /api/v1/pipeline/:runID/clusters
// Returns every output currently known and its partition root, per the
// run's global clustering fact.
func (h *APIHandler) handlePipelineClusters(c *gin.Context) {
	run, ok := h.pipelineRuns.get(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline run not found"})
		return
	}
	fact, ok := run.engine.EvaluatedFacts(run.clustering.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"clusters": []gin.H{}})
		return
	}
	clustering := fact.(dataflow.Clustering[ids.OutID])
	roots := make(map[string]string)
	for _, out := range clustering.DS.IterParentIDs() {
		roots[out.String()] = clustering.DS.Find(out).String()
	}
	c.JSON(http.StatusOK, gin.H{"runId": run.id, "clusters": roots})
}

// GET /api/v1/pipeline/:runID/clusters/quality
// Scores the run's full clustering (multi-input + same-address + change,
// joined) against its same-address-only sub-clustering, so a caller can see
// how much the rest of the catalog added over the cheapest signal alone.
func (h *APIHandler) handlePipelineClusterQuality(c *gin.Context) {
	run, ok := h.pipelineRuns.get(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline run not found"})
		return
	}

	globalFact, ok := run.engine.EvaluatedFacts(run.clustering.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ari": 0.0, "vi": 0.0})
		return
	}
	baselineFact, ok := run.engine.EvaluatedFacts(run.sameAddrOnly.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ari": 0.0, "vi": 0.0})
		return
	}
	outsFact, ok := run.engine.EvaluatedFacts(run.outs.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ari": 0.0, "vi": 0.0})
		return
	}

	global := globalFact.(dataflow.Clustering[ids.OutID])
	baseline := baselineFact.(dataflow.Clustering[ids.OutID])
	outSet := outsFact.(dataflow.TxOutSet[ids.OutID])

	agreement := metrics.CompareClusterings(global.DS, baseline.DS, outSet.Slice())
	c.JSON(http.StatusOK, gin.H{
		"runId": run.id,
		"ari":   agreement.ARI,
		"vi":    agreement.VI,
	})
}

// GET /api/v1/pipeline/:runID/masks/:kind
// kind is one of: coinjoin, change, uih1, uih2, unilateral.
func (h *APIHandler) handlePipelineMasks(c *gin.Context) {
	run, ok := h.pipelineRuns.get(c.Param("runID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline run not found"})
		return
	}

	kind := c.Param("kind")
	switch kind {
	case "coinjoin":
		writeTxMask(c, run, run.coinJoin)
	case "uih2":
		writeTxMask(c, run, run.uih2)
	case "unilateral":
		writeTxMask(c, run, run.unilateral)
	case "change":
		writeOutMask(c, run, run.changeMask)
	case "uih1":
		writeOutMask(c, run, run.uih1)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown mask kind %q", kind)})
	}
}

func writeTxMask(c *gin.Context, run *pipelineRun, expr dataflow.Expr[dataflow.Mask[ids.TxID]]) {
	fact, ok := run.engine.EvaluatedFacts(expr.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"flags": gin.H{}})
		return
	}
	mask := fact.(dataflow.Mask[ids.TxID])
	flags := make(map[string]bool, len(mask.Items))
	for k, v := range mask.Items {
		flags[k.String()] = v
	}
	c.JSON(http.StatusOK, gin.H{"runId": run.id, "flags": flags})
}

func writeOutMask(c *gin.Context, run *pipelineRun, expr dataflow.Expr[dataflow.Mask[ids.OutID]]) {
	fact, ok := run.engine.EvaluatedFacts(expr.ID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"flags": gin.H{}})
		return
	}
	mask := fact.(dataflow.Mask[ids.OutID])
	flags := make(map[string]bool, len(mask.Items))
	for k, v := range mask.Items {
		flags[k.String()] = v
	}
	c.JSON(http.StatusOK, gin.H{"runId": run.id, "flags": flags})
}
