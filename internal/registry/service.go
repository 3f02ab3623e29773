package registry

import (
	"context"
	"errors"
	"log"

	"lifeledger/internal/platform/identity"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
)

// Service gates every privileged ledger operation. It proves the caller's
// address through the Authenticator, then checks role membership in the Store.
type Service struct {
	store  Store
	auth   identity.Authenticator
	logger *log.Logger
}

func NewService(store Store, auth identity.Authenticator, logger *log.Logger) *Service {
	return &Service{store: store, auth: auth, logger: logger}
}

// Initialize records the admin address. Callable exactly once for the lifetime
// of the ledger; the admin must authenticate as themselves.
func (s *Service) Initialize(ctx context.Context, admin domain.Address) error {
	if admin.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "admin address cannot be empty")
	}
	if err := s.auth.RequireCaller(ctx, admin); err != nil {
		return err
	}
	if err := s.store.SetAdmin(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeAlreadyInitialized, "ledger is already initialized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set admin")
	}
	s.logger.Printf("ledger initialized admin=%s", admin)
	return nil
}

// RequireAdmin proves that caller is the configured admin.
func (s *Service) RequireAdmin(ctx context.Context, caller domain.Address) error {
	if err := s.auth.RequireCaller(ctx, caller); err != nil {
		return err
	}
	admin, err := s.store.Admin(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotInitialized, "ledger is not initialized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin")
	}
	if caller != admin {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the admin")
	}
	return nil
}

// RegisterBank adds a blood bank to the registry. Admin only.
func (s *Service) RegisterBank(ctx context.Context, caller, bank domain.Address) error {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if bank.IsZero() {
		return dErrors.New(dErrors.CodeNotAuthorizedBank, "bank address cannot be empty")
	}
	if err := s.store.AddBank(ctx, bank); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register bank")
	}
	s.logger.Printf("bank registered bank=%s", bank)
	return nil
}

// RegisterHospital authorizes a hospital to create requests and receive units.
// Admin only.
func (s *Service) RegisterHospital(ctx context.Context, caller, hospital domain.Address) error {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if hospital.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorizedHospital, "hospital address cannot be empty")
	}
	if err := s.store.AddHospital(ctx, hospital); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register hospital")
	}
	s.logger.Printf("hospital registered hospital=%s", hospital)
	return nil
}

// RevokeHospital removes a hospital's authorization. Existing requests keep
// their state; the hospital just cannot open new ones.
func (s *Service) RevokeHospital(ctx context.Context, caller, hospital domain.Address) error {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.store.RemoveHospital(ctx, hospital); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke hospital")
	}
	s.logger.Printf("hospital revoked hospital=%s", hospital)
	return nil
}

// IsBank reports bank membership without authenticating the caller.
func (s *Service) IsBank(ctx context.Context, addr domain.Address) (bool, error) {
	ok, err := s.store.HasBank(ctx, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read bank registry")
	}
	return ok, nil
}

// IsHospital reports hospital membership without authenticating the caller.
func (s *Service) IsHospital(ctx context.Context, addr domain.Address) (bool, error) {
	ok, err := s.store.HasHospital(ctx, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read hospital registry")
	}
	return ok, nil
}

// RequireBank proves that caller is an authenticated, registered blood bank.
func (s *Service) RequireBank(ctx context.Context, caller domain.Address) error {
	if err := s.auth.RequireCaller(ctx, caller); err != nil {
		return err
	}
	ok, err := s.IsBank(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotAuthorizedBank, "caller is not a registered blood bank")
	}
	return nil
}

// RequireHospital proves that caller is an authenticated, authorized hospital.
func (s *Service) RequireHospital(ctx context.Context, caller domain.Address) error {
	if err := s.auth.RequireCaller(ctx, caller); err != nil {
		return err
	}
	ok, err := s.IsHospital(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorizedHospital, "caller is not an authorized hospital")
	}
	return nil
}
