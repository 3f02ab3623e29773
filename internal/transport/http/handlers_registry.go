package httptransport

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeledger/internal/registry"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/requestcontext"
)

// RegistryHandler exposes participant management: one admin, then the banks
// and hospitals the admin vouches for.
type RegistryHandler struct {
	registry *registry.Service
	logger   *log.Logger
}

func NewRegistryHandler(svc *registry.Service, logger *log.Logger) *RegistryHandler {
	return &RegistryHandler{registry: svc, logger: logger}
}

// Register mounts the registry routes.
func (h *RegistryHandler) Register(r chi.Router) {
	r.Post("/registry/initialize", h.handleInitialize)
	r.Post("/registry/banks", h.handleRegisterBank)
	r.Post("/registry/hospitals", h.handleRegisterHospital)
	r.Delete("/registry/hospitals/{address}", h.handleRevokeHospital)
	r.Get("/registry/banks/{address}", h.handleIsBank)
	r.Get("/registry/hospitals/{address}", h.handleIsHospital)
}

func (h *RegistryHandler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	if err := h.registry.Initialize(ctx, caller); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Printf("registry initialized admin=%s request_id=%s", caller, requestcontext.RequestID(ctx))
	writeJSON(w, http.StatusCreated, map[string]string{"admin": caller.String()})
}

type registerParticipantRequest struct {
	Address string `json:"address"`
}

func (h *RegistryHandler) handleRegisterBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerParticipantRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	bank, err := domain.ParseAddress(body.Address)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.registry.RegisterBank(ctx, requestcontext.Caller(ctx), bank); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"bank": bank.String()})
}

func (h *RegistryHandler) handleRegisterHospital(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerParticipantRequest
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	hospital, err := domain.ParseAddress(body.Address)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.registry.RegisterHospital(ctx, requestcontext.Caller(ctx), hospital); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"hospital": hospital.String()})
}

func (h *RegistryHandler) handleRevokeHospital(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hospital, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.registry.RevokeHospital(ctx, requestcontext.Caller(ctx), hospital); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) handleIsBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.registry.IsBank(ctx, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_bank": ok})
}

func (h *RegistryHandler) handleIsHospital(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.registry.IsHospital(ctx, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_hospital": ok})
}
