package httptransport

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifeledger/internal/requests"
	"lifeledger/pkg/domain"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/requestcontext"
)

// RequestsHandler exposes the hospital blood request surface.
type RequestsHandler struct {
	requests *requests.Service
	logger   *log.Logger
}

func NewRequestsHandler(svc *requests.Service, logger *log.Logger) *RequestsHandler {
	return &RequestsHandler{requests: svc, logger: logger}
}

// Register mounts the request routes.
func (h *RequestsHandler) Register(r chi.Router) {
	r.Post("/requests", h.handleCreate)
	r.Get("/requests", h.handleQuery)
	r.Get("/requests/pending", h.handlePending)
	r.Post("/requests/{id}/approve", h.handleApprove)
	r.Post("/requests/{id}/reject", h.handleReject)
	r.Post("/requests/{id}/cancel", h.handleCancel)
	r.Post("/requests/{id}/assign", h.handleAssignUnits)
	r.Post("/requests/{id}/fulfill", h.handleFulfill)
	r.Post("/requests/{id}/complete", h.handleComplete)
	r.Post("/requests/{id}/status", h.handleUpdateStatus)
	r.Get("/requests/{id}", h.handleGet)
	r.Get("/requests/{id}/history", h.handleHistory)
}

type createRequestBody struct {
	BloodType       string `json:"blood_type"`
	QuantityML      uint32 `json:"quantity_ml"`
	Urgency         string `json:"urgency"`
	RequiredBy      uint64 `json:"required_by"`
	DeliveryAddress string `json:"delivery_address"`
	PatientRef      string `json:"patient_ref,omitempty"`
	Procedure       string `json:"procedure,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (h *RequestsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body createRequestBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	bloodType, err := domain.ParseBloodType(body.BloodType)
	if err != nil {
		writeError(w, err)
		return
	}
	urgency, err := domain.ParseUrgencyLevel(body.Urgency)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.requests.CreateRequest(ctx, requestcontext.Caller(ctx), requests.CreateRequestInput{
		BloodType:       bloodType,
		QuantityML:      body.QuantityML,
		Urgency:         urgency,
		RequiredBy:      body.RequiredBy,
		DeliveryAddress: body.DeliveryAddress,
		PatientRef:      body.PatientRef,
		Procedure:       body.Procedure,
		Notes:           body.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *RequestsHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.ApproveRequest(ctx, requestcontext.Caller(ctx), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (h *RequestsHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body rejectBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.RejectRequest(ctx, requestcontext.Caller(ctx), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelBody struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *RequestsHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body cancelBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.CancelRequest(ctx, requestcontext.Caller(ctx), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unitIDsBody struct {
	UnitIDs []uint64 `json:"unit_ids"`
}

func (h *RequestsHandler) handleAssignUnits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body unitIDsBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.AssignUnits(ctx, requestcontext.Caller(ctx), id, body.UnitIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestsHandler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body unitIDsBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.FulfillRequest(ctx, requestcontext.Caller(ctx), id, body.UnitIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestsHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.CompleteRequest(ctx, requestcontext.Caller(ctx), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateRequestStatusBody struct {
	Status string `json:"status"`
}

func (h *RequestsHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body updateRequestStatusBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	status, err := domain.ParseRequestStatus(body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.requests.UpdateStatus(ctx, requestcontext.Caller(ctx), id, status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.requests.GetRequest(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *RequestsHandler) handlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	reqs, err := h.requests.QueryPending(ctx, queryInt(q.Get("limit"), 0), queryInt(q.Get("offset"), 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": toRequestDTOs(reqs)})
}

// handleQuery dispatches on exactly one primary filter: hospital, urgency, or
// a start/end date range. A status filter may be combined with any of them.
func (h *RequestsHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 0)
	offset := queryInt(q.Get("offset"), 0)

	var statusFilter *domain.RequestStatus
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseRequestStatus(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		statusFilter = &status
	}

	var (
		reqs []*requests.BloodRequest
		err  error
	)
	switch {
	case q.Get("hospital") != "":
		var hospital domain.Address
		hospital, err = domain.ParseAddress(q.Get("hospital"))
		if err == nil {
			reqs, err = h.requests.QueryHospitalRequests(ctx, hospital, statusFilter, limit, offset)
		}
	case q.Get("urgency") != "":
		var urgency domain.UrgencyLevel
		urgency, err = domain.ParseUrgencyLevel(q.Get("urgency"))
		if err == nil {
			reqs, err = h.requests.QueryByUrgency(ctx, urgency, statusFilter, limit, offset)
		}
	case q.Get("start") != "" || q.Get("end") != "":
		var start, end uint64
		start, err = strconv.ParseUint(q.Get("start"), 10, 64)
		if err == nil {
			end, err = strconv.ParseUint(q.Get("end"), 10, 64)
		}
		if err != nil {
			err = dErrors.New(dErrors.CodeBadRequest, "start and end must be unix timestamps")
		} else {
			reqs, err = h.requests.QueryByDateRange(ctx, start, end, statusFilter, limit, offset)
		}
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "one of hospital, urgency, start/end is required")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": toRequestDTOs(reqs)})
}

func (h *RequestsHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.requests.GetHistory(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": toHistoryDTOs(records)})
}
