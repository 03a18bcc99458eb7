package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/metrics"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/service"
	"fieldforce-backend/internal/storage"
	"fieldforce-backend/internal/store"
)

var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *store.MemoryStore
	metrics    *metrics.Metrics
	now        time.Time
	users      *service.Directory
	rates      *service.Rates
	notify     *service.Notifications
	expenses   *service.Expenses
	attendance *service.Attendance
	visits     *service.Visits
	tourPlans  *service.TourPlans
	inventory  *service.Inventory
	targets    *service.Targets
	files      *storage.LocalStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: store.NewMemoryStore(), metrics: metrics.New(), now: monday}
	n := 0
	env := service.Env{
		Store:   f.store,
		Metrics: f.metrics,
		Now:     func() time.Time { return f.now },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	}

	files, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	f.files = files

	f.users = service.NewDirectory(env).WithBcryptCost(bcrypt.MinCost)
	f.rates = service.NewRates(env, rates.NopCache{})
	f.notify = service.NewNotifications(env)
	f.expenses = service.NewExpenses(env, f.users, f.rates, f.notify)
	f.attendance = service.NewAttendance(env, f.users, service.DefaultGPSSettings(), attendance.NewExporter(files))
	f.tourPlans = service.NewTourPlans(env, f.users, f.notify)
	f.inventory = service.NewInventory(env, f.users)
	f.targets = service.NewTargets(env, f.users)
	f.visits = service.NewVisits(env, f.users, service.DefaultGPSSettings()).WithStock(f.inventory)

	f.seed(t)
	return f
}

func f64(v float64) *float64 { return &v }

// Territory centers; the HQ one sits at 19.0N 72.0E with a 2km fence.
func seedTerritories() []roster.Territory {
	return []roster.Territory{
		{ID: "t-hq", Name: "Andheri", Category: "HQ", FixedKm: decimal.Zero, GeoLat: f64(19.0), GeoLng: f64(72.0), GeoRadius: f64(2000)},
		{ID: "t-ex", Name: "Thane", Category: "EX_HQ", FixedKm: decimal.NewFromInt(40), GeoLat: f64(19.2), GeoLng: f64(72.97)},
		{ID: "t-out", Name: "Pune", Category: "OUTSTATION", FixedKm: decimal.NewFromInt(150)},
	}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	put := func(p roster.Profile) {
		if p.Territories == nil {
			p.Territories = []roster.Territory{}
		}
		_, err := store.PutJSON(ctx, f.store, store.Users, p.ID, p, 0)
		require.NoError(t, err)
	}
	put(roster.Profile{ID: "admin", Email: "admin@example.com", DisplayName: "Head Office", Role: roster.RoleAdmin, Status: roster.StatusConfirmed})
	put(roster.Profile{ID: "asm-1", Email: "asm1@example.com", DisplayName: "Kiran", Role: roster.RoleASM, Status: roster.StatusConfirmed, ReportingManagerID: "admin"})
	put(roster.Profile{ID: "asm-2", Email: "asm2@example.com", DisplayName: "Nisha", Role: roster.RoleASM, Status: roster.StatusConfirmed, ReportingManagerID: "admin"})
	put(roster.Profile{ID: "mr-1", Email: "mr1@example.com", DisplayName: "Asha", Role: roster.RoleMR, Status: roster.StatusConfirmed, ReportingManagerID: "asm-1", Territories: seedTerritories()})
	put(roster.Profile{ID: "mr-2", Email: "mr2@example.com", DisplayName: "Ravi", Role: roster.RoleMR, Status: roster.StatusTrainee, ReportingManagerID: "asm-1"})
	put(roster.Profile{ID: "mr-3", Email: "mr3@example.com", DisplayName: "Meena", Role: roster.RoleMR, Status: roster.StatusConfirmed, ReportingManagerID: "asm-2"})
}

var (
	adminActor = roster.Actor{UserID: "admin", Role: roster.RoleAdmin, Status: roster.StatusConfirmed}
	asm1       = roster.Actor{UserID: "asm-1", Role: roster.RoleASM, Status: roster.StatusConfirmed}
	asm2       = roster.Actor{UserID: "asm-2", Role: roster.RoleASM, Status: roster.StatusConfirmed}
	mr1        = roster.Actor{UserID: "mr-1", Role: roster.RoleMR, Status: roster.StatusConfirmed}
	mr2        = roster.Actor{UserID: "mr-2", Role: roster.RoleMR, Status: roster.StatusTrainee}
)

// northOfHQ returns a precise reported fix the given distance north of the
// HQ territory center.
func northOfHQ(meters, accuracy float64) location.Reported {
	fix := location.Fix{Latitude: 19.0 + meters/111195.0, Longitude: 72.0, AccuracyMeters: accuracy}
	return location.Reported{Precise: &fix}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// counter sums the samples of a counter family whose labels include want.
// name omits the fieldforce_ namespace.
func (f *fixture) counter(t *testing.T, name string, want map[string]string) float64 {
	t.Helper()
	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, fam := range families {
		if fam.GetName() != "fieldforce_"+name {
			continue
		}
	metric:
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metric
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
