package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// bcryptCost balances login latency against brute-force cost.
const bcryptCost = 12

// ErrBadCredentials is returned for any failed login, whatever the cause.
var ErrBadCredentials = errors.New("invalid email or password")

// Directory manages user profiles and the reporting hierarchy.
type Directory struct {
	env  Env
	cost int
}

func NewDirectory(env Env) *Directory {
	env.defaults()
	return &Directory{env: env, cost: bcryptCost}
}

// WithBcryptCost overrides the hash cost, used by tests.
func (d *Directory) WithBcryptCost(cost int) *Directory {
	d.cost = cost
	return d
}

// Profile loads a profile by user id.
func (d *Directory) Profile(ctx context.Context, id string) (roster.Profile, error) {
	p, version, err := store.GetJSON[roster.Profile](ctx, d.env.Store, store.Users, id)
	if err != nil {
		return roster.Profile{}, err
	}
	p.Version = version
	return p, nil
}

// View returns a profile actor may see, without its password hash.
func (d *Directory) View(ctx context.Context, actor roster.Actor, id string) (roster.Profile, error) {
	p, err := d.Profile(ctx, id)
	if err != nil {
		return roster.Profile{}, err
	}
	if !canView(actor, p) {
		return roster.Profile{}, forbidden("this profile")
	}
	return p.Public(), nil
}

func (d *Directory) byEmail(ctx context.Context, email string) (roster.Profile, bool, error) {
	found, err := store.QueryJSON[roster.Profile](ctx, d.env.Store, store.Users, store.Eq("email", normalizeEmail(email)))
	if err != nil {
		return roster.Profile{}, false, err
	}
	if len(found) == 0 {
		return roster.Profile{}, false, nil
	}
	return found[0], true, nil
}

// Authenticate checks an email and password pair.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (roster.Profile, error) {
	p, ok, err := d.byEmail(ctx, email)
	if err != nil {
		return roster.Profile{}, err
	}
	if !ok || p.PasswordHash == "" {
		return roster.Profile{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return roster.Profile{}, ErrBadCredentials
	}
	return d.Profile(ctx, p.ID)
}

// NewUser is what an admin supplies to create a profile.
type NewUser struct {
	ID                 string
	Email              string
	Password           string
	DisplayName        string
	Role               roster.Role
	Status             roster.Status
	HQLocation         string
	State              string
	ReportingManagerID string
	Territories        []roster.Territory
	HQLat              *float64
	HQLng              *float64
}

// Create stores a new profile. Only admins may create users.
func (d *Directory) Create(ctx context.Context, actor roster.Actor, u NewUser) (roster.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return roster.Profile{}, err
	}
	return d.create(ctx, u)
}

// Bootstrap creates the first admin when the directory is empty. It returns
// false when any user already exists.
func (d *Directory) Bootstrap(ctx context.Context, email, password, name string) (bool, error) {
	existing, err := d.env.Store.Query(ctx, store.Users)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	_, err = d.create(ctx, NewUser{
		Email:       email,
		Password:    password,
		DisplayName: name,
		Role:        roster.RoleAdmin,
		Status:      roster.StatusConfirmed,
		HQLocation:  "Head Office",
	})
	return err == nil, err
}

func (d *Directory) create(ctx context.Context, u NewUser) (roster.Profile, error) {
	if len(u.Password) < 6 {
		return roster.Profile{}, apperr.New(apperr.KindValidation, "WEAK_PASSWORD", "Password must be at least 6 characters")
	}
	if u.ID == "" {
		u.ID = d.env.NewID()
	}
	p := roster.Profile{
		ID:                 u.ID,
		Email:              normalizeEmail(u.Email),
		DisplayName:        strings.TrimSpace(u.DisplayName),
		Role:               u.Role,
		Status:             u.Status,
		HQLocation:         strings.TrimSpace(u.HQLocation),
		State:              u.State,
		ReportingManagerID: u.ReportingManagerID,
		Territories:        u.Territories,
		HQLat:              u.HQLat,
		HQLng:              u.HQLng,
	}
	if p.Territories == nil {
		p.Territories = []roster.Territory{}
	}
	if err := d.validate(ctx, p); err != nil {
		return roster.Profile{}, err
	}
	if _, taken, err := d.byEmail(ctx, p.Email); err != nil {
		return roster.Profile{}, err
	} else if taken {
		return roster.Profile{}, apperr.New(apperr.KindConflict, "EMAIL_TAKEN", "An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), d.cost)
	if err != nil {
		return roster.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	p.PasswordHash = string(hash)

	version, err := store.PutJSON(ctx, d.env.Store, store.Users, p.ID, p, 0)
	if err != nil {
		return roster.Profile{}, err
	}
	p.Version = version
	return p.Public(), nil
}

// ProfilePatch holds the admin-editable fields; nil fields are unchanged.
type ProfilePatch struct {
	DisplayName        *string
	Role               *roster.Role
	Status             *roster.Status
	HQLocation         *string
	State              *string
	ReportingManagerID *string
	Territories        []roster.Territory
	HQLat              *float64
	HQLng              *float64
	Password           *string
}

// Update edits a profile as an admin. version is the version the admin
// loaded; 0 skips the check.
func (d *Directory) Update(ctx context.Context, actor roster.Actor, id string, version int64, patch ProfilePatch) (roster.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return roster.Profile{}, err
	}
	p, err := d.Profile(ctx, id)
	if err != nil {
		return roster.Profile{}, err
	}
	if version > 0 && version != p.Version {
		return roster.Profile{}, store.Conflict(store.Users, id)
	}

	if patch.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.HQLocation != nil {
		p.HQLocation = strings.TrimSpace(*patch.HQLocation)
	}
	if patch.State != nil {
		p.State = *patch.State
	}
	if patch.ReportingManagerID != nil {
		p.ReportingManagerID = *patch.ReportingManagerID
	}
	if patch.Territories != nil {
		p.Territories = patch.Territories
	}
	if patch.HQLat != nil {
		p.HQLat = patch.HQLat
	}
	if patch.HQLng != nil {
		p.HQLng = patch.HQLng
	}
	if err := d.validate(ctx, p); err != nil {
		return roster.Profile{}, err
	}
	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			return roster.Profile{}, apperr.New(apperr.KindValidation, "WEAK_PASSWORD", "Password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), d.cost)
		if err != nil {
			return roster.Profile{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = string(hash)
	}

	newVersion, err := store.PutJSON(ctx, d.env.Store, store.Users, p.ID, p, p.Version)
	if err != nil {
		return roster.Profile{}, err
	}
	p.Version = newVersion
	return p.Public(), nil
}

func (d *Directory) validate(ctx context.Context, p roster.Profile) error {
	switch {
	case p.Email == "" || !strings.Contains(p.Email, "@"):
		return apperr.New(apperr.KindValidation, "INVALID_EMAIL", "A valid email is required")
	case p.DisplayName == "":
		return apperr.New(apperr.KindValidation, "MISSING_NAME", "Name is required")
	case !p.Role.IsValid():
		return apperr.Newf(apperr.KindValidation, "INVALID_ROLE", "Unknown role %q", p.Role)
	case !p.Status.IsValid():
		return apperr.Newf(apperr.KindValidation, "INVALID_STATUS", "Unknown status %q", p.Status)
	}
	if err := ValidateTerritories(p.Territories); err != nil {
		return err
	}
	if p.ReportingManagerID == "" {
		return nil
	}
	if p.ReportingManagerID == p.ID {
		return apperr.New(apperr.KindValidation, "SELF_MANAGER", "A user cannot report to themself")
	}
	mgr, err := d.Profile(ctx, p.ReportingManagerID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.New(apperr.KindValidation, "UNKNOWN_MANAGER", "Reporting manager does not exist")
		}
		return err
	}
	if mgr.Role.Level() <= p.Role.Level() {
		return apperr.Newf(apperr.KindValidation, "INVALID_MANAGER", "A %s cannot report to a %s", p.Role, mgr.Role)
	}
	return nil
}

// ValidateTerritories checks ids are present and unique, categories are
// expense categories and fixed distances are not negative.
func ValidateTerritories(ts []roster.Territory) error {
	seen := make(map[string]bool, len(ts))
	for _, t := range ts {
		if t.ID == "" || strings.TrimSpace(t.Name) == "" {
			return apperr.New(apperr.KindValidation, "INVALID_TERRITORY", "Territories need an id and a name")
		}
		if seen[t.ID] {
			return apperr.Newf(apperr.KindValidation, "DUPLICATE_TERRITORY", "Territory %q is listed twice", t.ID)
		}
		seen[t.ID] = true
		if !expense.Category(t.Category).IsValid() {
			return apperr.Newf(apperr.KindValidation, "INVALID_CATEGORY", "Territory %q has unknown category %q", t.ID, t.Category)
		}
		if t.FixedKm.IsNegative() {
			return apperr.Newf(apperr.KindValidation, "NEGATIVE_AMOUNT", "Territory %q has a negative distance", t.ID)
		}
		if (t.GeoLat == nil) != (t.GeoLng == nil) {
			return apperr.Newf(apperr.KindValidation, "INVALID_COORDINATES", "Territory %q needs both coordinates", t.ID)
		}
	}
	return nil
}

// Team returns the profiles actor manages: every user for an admin, direct
// reports for everyone else. Results are sorted by name.
func (d *Directory) Team(ctx context.Context, actor roster.Actor) ([]roster.Profile, error) {
	var (
		members []roster.Profile
		err     error
	)
	if actor.IsAdmin() {
		members, err = store.QueryJSON[roster.Profile](ctx, d.env.Store, store.Users)
	} else {
		members, err = store.QueryJSON[roster.Profile](ctx, d.env.Store, store.Users, store.Eq("reportingManagerId", actor.UserID))
	}
	if err != nil {
		return nil, err
	}

	out := make([]roster.Profile, 0, len(members))
	for _, m := range members {
		if m.ID == actor.UserID {
			continue
		}
		out = append(out, m.Public())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
