package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/seovimalraj/cnc-quote-sub009/internal/canonical"
	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
	"github.com/seovimalraj/cnc-quote-sub009/internal/observability"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
	"github.com/seovimalraj/cnc-quote-sub009/internal/rationale"
)

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *pricing.Orchestrator
	store        *catalog.Store
	rationale    *rationale.Service
}

// NewHandler creates a new HTTP handler (DI constructor). The rationale
// service may be nil when no OpenAI key is configured.
func NewHandler(orchestrator *pricing.Orchestrator, store *catalog.Store, rationaleSvc *rationale.Service) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		store:        store,
		rationale:    rationaleSvc,
	}
}

// HandlePrice computes a quote price.
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var quote pricing.QuoteConfig
	if err := json.NewDecoder(r.Body).Decode(&quote); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if quote.OrgID != "" {
		ctx = observability.WithOrgID(ctx, quote.OrgID)
	}
	if quote.QuoteID != "" {
		ctx = observability.WithQuoteID(ctx, quote.QuoteID)
	}

	logger := observability.FromContext(ctx)
	logger.Info("pricing request received",
		observability.String("material_code", quote.MaterialCode),
		observability.String("machine_group", quote.MachineGroup),
		observability.Int("quantity", quote.Quantity),
	)

	result, err := h.orchestrator.CalculatePrice(ctx, &quote)
	if err != nil {
		logger.Error("pricing failed", observability.Error(err))
		http.Error(w, err.Error(), pricingStatus(err))
		return
	}

	logger.Info("pricing succeeded",
		observability.Float64("total", result.Total),
		observability.Bool("cache_hit", result.CacheHit),
	)

	// Producers enqueueing follow-up work key their jobs off the same
	// canonical payload digest the engine uses.
	if key, keyErr := canonical.IdempotencyKey(quote.OrgID, h.store.Snapshot().Config.Version, &quote); keyErr == nil {
		w.Header().Set("X-Idempotency-Key", key)
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleRationale generates a narrative explanation for an already-computed
// pricing result.
func (h *Handler) HandleRationale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.rationale == nil {
		http.Error(w, "rationale generation is not configured", http.StatusNotImplemented)
		return
	}

	var result pricing.PricingResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	text, err := h.rationale.Generate(ctx, &result)
	if err != nil {
		observability.FromContext(ctx).Error("rationale generation failed", observability.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"rationale": text})
}

// HandleCatalogReload swaps in a revalidated catalog from disk. On failure
// the previous good catalog stays active.
func (h *Handler) HandleCatalogReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.store.Reload()
	if err != nil {
		observability.FromContext(ctx).Error("catalog reload rejected", observability.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrInvalidCatalog) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}

	observability.FromContext(ctx).Info("catalog reloaded",
		observability.String("version", snap.Config.Version),
		observability.String("catalog_hash", snap.Hash),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"version":      snap.Config.Version,
		"catalog_hash": snap.Hash,
	})
}

// HandleHealth reports liveness and the active catalog version.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": snap.Config.Version,
	})
}

// pricingStatus maps engine errors onto HTTP statuses: unknown request codes
// are the caller's problem, everything else is internal.
func pricingStatus(err error) int {
	var unknown *pricing.UnknownCodeError
	if errors.As(err, &unknown) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
