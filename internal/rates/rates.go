// Package rates resolves the allowance and per-km configuration that applies
// to a user's role and employment status.
package rates

import (
	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/roster"
)

// Config is the monetary rate set for one (role, status) pair.
type Config struct {
	HQAllowance         decimal.Decimal `json:"hqAllowance"`
	ExHQAllowance       decimal.Decimal `json:"exHqAllowance"`
	OutstationAllowance decimal.Decimal `json:"outstationAllowance"`
	KmRate              decimal.Decimal `json:"kmRate"`
}

// Table maps role then status to a rate configuration.
type Table map[roster.Role]map[roster.Status]Config

// FallbackRole and FallbackStatus select the entry used when a pair is missing.
const (
	FallbackRole   = roster.RoleMR
	FallbackStatus = roster.StatusConfirmed
)

// Lookup returns the exact entry for (role, status).
func (t Table) Lookup(role roster.Role, status roster.Status) (Config, bool) {
	byStatus, ok := t[role]
	if !ok {
		return Config{}, false
	}
	cfg, ok := byStatus[status]
	return cfg, ok
}

// Set stores cfg for (role, status), allocating the inner map if needed.
func (t Table) Set(role roster.Role, status roster.Status, cfg Config) {
	if t[role] == nil {
		t[role] = map[roster.Status]Config{}
	}
	t[role][status] = cfg
}

// Resolve picks the rate for (role, status): the exact entry, then the
// MR/CONFIRMED entry, then a zero configuration. It never fails.
func Resolve(t Table, role roster.Role, status roster.Status) Config {
	if cfg, ok := t.Lookup(role, status); ok {
		return cfg
	}
	if cfg, ok := t.Lookup(FallbackRole, FallbackStatus); ok {
		return cfg
	}
	return Config{}
}

// Validate rejects unknown roles/statuses and negative amounts.
func (t Table) Validate() error {
	for role, byStatus := range t {
		if !role.IsValid() {
			return apperr.Newf(apperr.KindValidation, "INVALID_ROLE", "Unknown role %q in rate table", role)
		}
		for status, cfg := range byStatus {
			if !status.IsValid() {
				return apperr.Newf(apperr.KindValidation, "INVALID_STATUS", "Unknown status %q in rate table", status)
			}
			if cfg.HQAllowance.IsNegative() || cfg.ExHQAllowance.IsNegative() ||
				cfg.OutstationAllowance.IsNegative() || cfg.KmRate.IsNegative() {
				return apperr.Newf(apperr.KindValidation, "NEGATIVE_RATE", "Rates for %s/%s must not be negative", role, status)
			}
		}
	}
	return nil
}

// Defaults is the table seeded when no rates document exists yet.
func Defaults() Table {
	t := Table{}
	t.Set(roster.RoleMR, roster.StatusConfirmed, newConfig(250, 350, 550, "3.5"))
	t.Set(roster.RoleASM, roster.StatusConfirmed, newConfig(300, 450, 700, "4.5"))
	t.Set(roster.RoleAdmin, roster.StatusConfirmed, newConfig(500, 800, 1200, "8"))
	return t
}

func newConfig(hq, exHQ, outstation int64, kmRate string) Config {
	return Config{
		HQAllowance:         decimal.NewFromInt(hq),
		ExHQAllowance:       decimal.NewFromInt(exHQ),
		OutstationAllowance: decimal.NewFromInt(outstation),
		KmRate:              decimal.RequireFromString(kmRate),
	}
}
