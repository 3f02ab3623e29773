package httptransport

import (
	"lifeledger/internal/history"
	"lifeledger/internal/inventory"
	"lifeledger/internal/requests"
)

type unitDTO struct {
	ID                uint64  `json:"id"`
	BloodType         string  `json:"blood_type"`
	QuantityML        uint32  `json:"quantity_ml"`
	ExpirationTS      uint64  `json:"expiration_ts"`
	DonorID           *string `json:"donor_id,omitempty"`
	BankID            string  `json:"bank_id"`
	RegisteredAt      uint64  `json:"registered_at"`
	Status            string  `json:"status"`
	RecipientHospital *string `json:"recipient_hospital,omitempty"`
	AllocatedAt       *uint64 `json:"allocated_at,omitempty"`
	TransferredAt     *uint64 `json:"transferred_at,omitempty"`
	DeliveredAt       *uint64 `json:"delivered_at,omitempty"`
}

func toUnitDTO(u *inventory.BloodUnit) unitDTO {
	d := unitDTO{
		ID:            u.ID,
		BloodType:     string(u.BloodType),
		QuantityML:    u.QuantityML,
		ExpirationTS:  u.ExpirationTS,
		DonorID:       u.DonorID,
		BankID:        u.BankID.String(),
		RegisteredAt:  u.RegisteredAt,
		Status:        string(u.Status),
		AllocatedAt:   u.AllocatedAt,
		TransferredAt: u.TransferredAt,
		DeliveredAt:   u.DeliveredAt,
	}
	if u.RecipientHospital != nil {
		s := u.RecipientHospital.String()
		d.RecipientHospital = &s
	}
	return d
}

func toUnitDTOs(units []*inventory.BloodUnit) []unitDTO {
	out := make([]unitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitDTO(u))
	}
	return out
}

type requestDTO struct {
	ID              uint64   `json:"id"`
	HospitalID      string   `json:"hospital_id"`
	BloodType       string   `json:"blood_type"`
	QuantityML      uint32   `json:"quantity_ml"`
	Urgency         string   `json:"urgency"`
	RequiredBy      uint64   `json:"required_by"`
	DeliveryAddress string   `json:"delivery_address"`
	PatientRef      string   `json:"patient_ref,omitempty"`
	Procedure       string   `json:"procedure,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	CreatedAt       uint64   `json:"created_at"`
	Status          string   `json:"status"`
	FulfilledAt     *uint64  `json:"fulfilled_at,omitempty"`
	AssignedUnits   []uint64 `json:"assigned_units,omitempty"`
}

func toRequestDTO(r *requests.BloodRequest) requestDTO {
	return requestDTO{
		ID:              r.ID,
		HospitalID:      r.HospitalID.String(),
		BloodType:       string(r.BloodType),
		QuantityML:      r.QuantityML,
		Urgency:         string(r.Urgency),
		RequiredBy:      r.RequiredBy,
		DeliveryAddress: r.DeliveryAddress,
		PatientRef:      r.PatientRef,
		Procedure:       r.Procedure,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		Status:          r.Status.String(),
		FulfilledAt:     r.FulfilledAt,
		AssignedUnits:   r.AssignedUnits,
	}
}

func toRequestDTOs(reqs []*requests.BloodRequest) []requestDTO {
	out := make([]requestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDTO(r))
	}
	return out
}

type historyDTO struct {
	FromStatus string  `json:"from_status,omitempty"`
	ToStatus   string  `json:"to_status"`
	Actor      string  `json:"actor"`
	Timestamp  uint64  `json:"timestamp"`
	Reason     *string `json:"reason,omitempty"`
}

func toHistoryDTOs(records []history.Record) []historyDTO {
	out := make([]historyDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, historyDTO{
			FromStatus: rec.FromStatus,
			ToStatus:   rec.ToStatus,
			Actor:      rec.Actor.String(),
			Timestamp:  rec.Timestamp,
			Reason:     rec.Reason,
		})
	}
	return out
}
