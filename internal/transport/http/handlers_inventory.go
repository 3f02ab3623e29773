package httptransport

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifeledger/internal/inventory"
	"lifeledger/pkg/domain"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/requestcontext"
)

// InventoryHandler exposes the blood unit surface.
type InventoryHandler struct {
	inventory *inventory.Service
	logger    *log.Logger
}

func NewInventoryHandler(svc *inventory.Service, logger *log.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: svc, logger: logger}
}

// Register mounts the unit routes.
func (h *InventoryHandler) Register(r chi.Router) {
	r.Post("/units", h.handleRegister)
	r.Post("/units/allocate-batch", h.handleBatchAllocate)
	r.Post("/units/status-batch", h.handleBatchUpdateStatus)
	r.Post("/units/{id}/allocate", h.handleAllocate)
	r.Post("/units/{id}/cancel-allocation", h.handleCancelAllocation)
	r.Post("/units/{id}/transfer", h.handleInitiateTransfer)
	r.Post("/units/{id}/confirm-delivery", h.handleConfirmDelivery)
	r.Post("/units/{id}/withdraw", h.handleWithdraw)
	r.Post("/units/{id}/status", h.handleUpdateStatus)
	r.Get("/units", h.handleQuery)
	r.Get("/units/{id}", h.handleGet)
	r.Get("/units/{id}/history", h.handleHistory)
	r.Get("/units/{id}/history/count", h.handleHistoryCount)
	r.Get("/availability", h.handleAvailability)
}

type registerUnitRequest struct {
	BloodType    string  `json:"blood_type"`
	QuantityML   uint32  `json:"quantity_ml"`
	ExpirationTS uint64  `json:"expiration_ts"`
	DonorID      *string `json:"donor_id,omitempty"`
}

func (h *InventoryHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerUnitRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	bloodType, err := domain.ParseBloodType(body.BloodType)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.inventory.RegisterBlood(ctx, requestcontext.Caller(ctx), inventory.RegisterBloodInput{
		BloodType:    bloodType,
		QuantityML:   body.QuantityML,
		ExpirationTS: body.ExpirationTS,
		DonorID:      body.DonorID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

type allocateRequest struct {
	Hospital string `json:"hospital"`
}

func (h *InventoryHandler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body allocateRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	hospital, err := domain.ParseAddress(body.Hospital)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.inventory.Allocate(ctx, requestcontext.Caller(ctx), id, hospital); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchAllocateRequest struct {
	UnitIDs  []uint64 `json:"unit_ids"`
	Hospital string   `json:"hospital"`
}

func (h *InventoryHandler) handleBatchAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body batchAllocateRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	hospital, err := domain.ParseAddress(body.Hospital)
	if err != nil {
		writeError(w, err)
		return
	}

	allocated, err := h.inventory.BatchAllocate(ctx, requestcontext.Caller(ctx), body.UnitIDs, hospital)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"allocated": allocated})
}

func (h *InventoryHandler) handleCancelAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.inventory.CancelAllocation(ctx, requestcontext.Caller(ctx), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.inventory.InitiateTransfer(ctx, requestcontext.Caller(ctx), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) handleConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.inventory.ConfirmDelivery(ctx, requestcontext.Caller(ctx), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type withdrawRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note,omitempty"`
}

func (h *InventoryHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body withdrawRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	reason, err := domain.ParseWithdrawalReason(body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.inventory.Withdraw(ctx, requestcontext.Caller(ctx), id, reason, body.Note); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateUnitStatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func (h *InventoryHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body updateUnitStatusRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	status, err := domain.ParseBloodStatus(body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.inventory.UpdateStatus(ctx, requestcontext.Caller(ctx), id, status, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchUpdateStatusRequest struct {
	UnitIDs []uint64 `json:"unit_ids"`
	Status  string   `json:"status"`
	Reason  *string  `json:"reason,omitempty"`
}

func (h *InventoryHandler) handleBatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body batchUpdateStatusRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	status, err := domain.ParseBloodStatus(body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.inventory.BatchUpdateStatus(ctx, requestcontext.Caller(ctx), body.UnitIDs, status, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.inventory.GetUnit(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUnitDTO(unit))
}

// handleQuery dispatches on exactly one filter: status, hospital, bank, or
// blood_type. blood_type additionally honors min_quantity and returns units in
// FIFO expiry order.
func (h *InventoryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 0)

	var (
		units []*inventory.BloodUnit
		err   error
	)
	switch {
	case q.Get("status") != "":
		var status domain.BloodStatus
		status, err = domain.ParseBloodStatus(q.Get("status"))
		if err == nil {
			units, err = h.inventory.QueryByStatus(ctx, status, limit)
		}
	case q.Get("hospital") != "":
		var hospital domain.Address
		hospital, err = domain.ParseAddress(q.Get("hospital"))
		if err == nil {
			units, err = h.inventory.QueryByHospital(ctx, hospital, limit)
		}
	case q.Get("bank") != "":
		var bank domain.Address
		bank, err = domain.ParseAddress(q.Get("bank"))
		if err == nil {
			units, err = h.inventory.QueryByBank(ctx, bank, limit)
		}
	case q.Get("blood_type") != "":
		var bloodType domain.BloodType
		bloodType, err = domain.ParseBloodType(q.Get("blood_type"))
		if err == nil {
			minQuantity := uint32(queryInt(q.Get("min_quantity"), 0)) //nolint:gosec // bounded by policy
			units, err = h.inventory.QueryByBloodType(ctx, bloodType, minQuantity, limit)
		}
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "one of status, hospital, bank, blood_type is required")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": toUnitDTOs(units)})
}

func (h *InventoryHandler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	bloodType, err := domain.ParseBloodType(q.Get("blood_type"))
	if err != nil {
		writeError(w, err)
		return
	}
	quantity, err := strconv.ParseUint(q.Get("quantity_ml"), 10, 32)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "quantity_ml must be a positive integer"))
		return
	}

	available, err := h.inventory.CheckAvailability(ctx, bloodType, uint32(quantity))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *InventoryHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.inventory.GetHistory(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": toHistoryDTOs(records)})
}

func (h *InventoryHandler) handleHistoryCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := h.inventory.GetStatusChangeCount(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
