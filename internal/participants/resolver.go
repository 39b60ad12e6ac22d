// Package participants resolves participant identifiers (email or pinfl) into platform users
// and maintains the stored participant set of a webinar.
package participants

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/models"
)

// Directory searches the user service by identifier.
type Directory interface {
	BulkSearch(ctx context.Context, queries []string) ([]models.ResolvedUser, error)
}

// Store persists participants. Implementations take the transaction from ctx.
type Store interface {
	ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error)
	InsertMany(ctx context.Context, webinarID uuid.UUID, userIDs []uuid.UUID, createdAt time.Time) error
	DeleteByWebinar(ctx context.Context, webinarID uuid.UUID) (int64, error)
}

// Mapping maps a resolved user id to the supplied identifier it satisfied.
type Mapping map[uuid.UUID]string

// UserIDs returns the mapped user ids in a stable order.
func (m Mapping) UserIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Identifiers returns the identifiers of the given user ids, skipping ids not in m.
func (m Mapping) Identifiers(userIDs []uuid.UUID) []string {
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if ident, ok := m[id]; ok {
			out = append(out, ident)
		}
	}
	return out
}

// Normalize trims identifiers, drops blanks and removes exact duplicates, keeping first-seen order.
func Normalize(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, raw := range identifiers {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Resolver turns identifiers into participants.
type Resolver struct {
	directory Directory
	store     Store
	now       func() time.Time
	logger    *zap.Logger
}

// NewResolver creates a participant resolver.
func NewResolver(directory Directory, store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{directory: directory, store: store, now: time.Now, logger: logger}
}

// Resolve maps identifiers to users. Guests are excluded and users matching none of the
// supplied identifiers are dropped with a warning.
func (r *Resolver) Resolve(ctx context.Context, identifiers []string) (Mapping, error) {
	return r.resolve(ctx, identifiers, false)
}

// ResolveStrict is Resolve, failing with a not-found error naming the first identifier left unmatched.
func (r *Resolver) ResolveStrict(ctx context.Context, identifiers []string) (Mapping, error) {
	return r.resolve(ctx, identifiers, true)
}

func (r *Resolver) resolve(ctx context.Context, identifiers []string, strict bool) (Mapping, error) {
	normalized := Normalize(identifiers)
	if len(normalized) == 0 {
		return Mapping{}, nil
	}

	users, err := r.directory.BulkSearch(ctx, normalized)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Unavailable("user directory search failed", err)
	}
	r.logger.Debug("user directory search",
		zap.Int("identifiers", len(normalized)),
		zap.Int("users", len(users)),
	)

	inputs := make(map[string]struct{}, len(normalized))
	folded := make(map[string]string, len(normalized))
	for _, ident := range normalized {
		inputs[ident] = struct{}{}
		key := strings.ToLower(ident)
		if _, ok := folded[key]; !ok {
			folded[key] = ident
		}
	}

	out := make(Mapping, len(users))
	claimed := make(map[string]uuid.UUID, len(users))
	for _, u := range users {
		if u.Role == models.RoleGuest {
			continue
		}
		if _, dup := out[u.UserID]; dup {
			continue
		}
		ident, ok := matchIdentifier(u, inputs, folded)
		if !ok {
			r.logger.Warn("directory user matches no supplied identifier",
				zap.String("user_id", u.UserID.String()),
			)
			continue
		}
		if owner, taken := claimed[ident]; taken {
			r.logger.Warn("identifier already resolved to another user",
				zap.String("identifier", ident),
				zap.String("user_id", u.UserID.String()),
				zap.String("owner_id", owner.String()),
			)
			continue
		}
		claimed[ident] = u.UserID
		out[u.UserID] = ident
	}

	if strict {
		for _, ident := range normalized {
			if _, ok := claimed[ident]; !ok {
				return nil, apperr.UserNotFound(ident)
			}
		}
	}
	return out, nil
}

// matchIdentifier prefers the user's email when it was supplied, then the national id.
// An email also matches an identifier differing only in case.
func matchIdentifier(u models.ResolvedUser, inputs map[string]struct{}, folded map[string]string) (string, bool) {
	if u.Email != "" {
		if _, ok := inputs[u.Email]; ok {
			return u.Email, true
		}
		if ident, ok := folded[strings.ToLower(u.Email)]; ok {
			return ident, true
		}
	}
	if u.NationalID != "" {
		if _, ok := inputs[u.NationalID]; ok {
			return u.NationalID, true
		}
	}
	return "", false
}

// AddToExisting resolves identifiers and stores the users not yet participating.
// It returns only the users actually added; re-adding a participant is a no-op.
func (r *Resolver) AddToExisting(ctx context.Context, webinarID uuid.UUID, identifiers []string) (Mapping, error) {
	resolved, err := r.Resolve(ctx, identifiers)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return resolved, nil
	}

	existing, err := r.store.ListByWebinar(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for _, p := range existing {
		delete(resolved, p.UserID)
	}
	if len(resolved) == 0 {
		r.logger.Info("no new participants to add", zap.String("webinar_id", webinarID.String()))
		return resolved, nil
	}

	if err := r.store.InsertMany(ctx, webinarID, resolved.UserIDs(), r.now()); err != nil {
		return nil, fmt.Errorf("insert participants: %w", err)
	}
	r.logger.Info("participants added",
		zap.String("webinar_id", webinarID.String()),
		zap.Int("count", len(resolved)),
	)
	return resolved, nil
}

// ReplaceAll deletes the stored participants of a webinar and stores the strictly resolved set.
func (r *Resolver) ReplaceAll(ctx context.Context, webinarID uuid.UUID, identifiers []string) (Mapping, error) {
	removed, err := r.store.DeleteByWebinar(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("delete participants: %w", err)
	}
	r.logger.Debug("participants cleared",
		zap.String("webinar_id", webinarID.String()),
		zap.Int64("count", removed),
	)

	resolved, err := r.ResolveStrict(ctx, identifiers)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return resolved, nil
	}
	if err := r.store.InsertMany(ctx, webinarID, resolved.UserIDs(), r.now()); err != nil {
		return nil, fmt.Errorf("insert participants: %w", err)
	}
	r.logger.Info("participants replaced",
		zap.String("webinar_id", webinarID.String()),
		zap.Int("count", len(resolved)),
	)
	return resolved, nil
}

// List returns the stored participants of a webinar.
func (r *Resolver) List(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error) {
	list, err := r.store.ListByWebinar(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return list, nil
}

// Clear removes every stored participant of a webinar.
func (r *Resolver) Clear(ctx context.Context, webinarID uuid.UUID) (int64, error) {
	removed, err := r.store.DeleteByWebinar(ctx, webinarID)
	if err != nil {
		return 0, fmt.Errorf("delete participants: %w", err)
	}
	return removed, nil
}
