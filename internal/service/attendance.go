package service

import (
	"context"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/geofence"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// GPSSettings are the location thresholds applied by the services.
type GPSSettings struct {
	Attendance geofence.AccuracyPolicy
	Visit      geofence.VisitPolicy
	Location   location.Options
}

// DefaultGPSSettings returns the production thresholds.
func DefaultGPSSettings() GPSSettings {
	return GPSSettings{
		Attendance: geofence.AttendancePolicy(),
		Visit:      geofence.DefaultVisitPolicy(),
		Location:   location.DefaultOptions(),
	}
}

// Attendance records punches and reports team status.
type Attendance struct {
	env      Env
	users    *Directory
	gps      GPSSettings
	exporter *attendance.Exporter
}

// NewAttendance creates the service. exporter may be nil, in which case
// records stay marked as not exported.
func NewAttendance(env Env, users *Directory, gps GPSSettings, exporter *attendance.Exporter) *Attendance {
	env.defaults()
	return &Attendance{env: env, users: users, gps: gps, exporter: exporter}
}

func (s *Attendance) today() string {
	return s.env.Now().Format(attendance.DateLayout)
}

func (s *Attendance) load(ctx context.Context, userID, date string) (attendance.Daily, error) {
	d, version, err := store.GetJSON[attendance.Daily](ctx, s.env.Store, store.Attendance, attendance.DailyID(userID, date))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return attendance.NewDaily(userID, date), nil
	}
	if err != nil {
		return attendance.Daily{}, err
	}
	d.Version = version
	return d, nil
}

// Today returns the actor's record for today; an empty record when they
// have not punched yet.
func (s *Attendance) Today(ctx context.Context, actor roster.Actor) (attendance.Daily, error) {
	return s.load(ctx, actor.UserID, s.today())
}

// Day returns a user's record for a date, for the user or their managers.
func (s *Attendance) Day(ctx context.Context, actor roster.Actor, userID, date string) (attendance.Daily, error) {
	if err := validDate(date); err != nil {
		return attendance.Daily{}, err
	}
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return attendance.Daily{}, err
	}
	if !canView(actor, owner) {
		return attendance.Daily{}, forbidden("this attendance record")
	}
	return s.load(ctx, userID, date)
}

// PunchResult is the saved record plus the feedback shown to the user.
type PunchResult struct {
	Record   attendance.Daily `json:"record"`
	Geofence geofence.Result  `json:"geofence"`
	Message  string           `json:"message"`
	Level    string           `json:"level"`
}

// Punch acquires a fix from provider, gates it on accuracy, matches it to
// the actor's territories and records the punch. A punch outside every
// territory is recorded with a warning; a fix that is missing or too coarse
// records nothing.
func (s *Attendance) Punch(ctx context.Context, actor roster.Actor, typ attendance.PunchType, provider location.Provider) (PunchResult, error) {
	if !typ.IsValid() {
		return PunchResult{}, apperr.Newf(apperr.KindValidation, "INVALID_PUNCH_TYPE", "Unknown punch type %q", typ)
	}
	profile, err := s.users.Profile(ctx, actor.UserID)
	if err != nil {
		return PunchResult{}, err
	}

	fix, err := location.Acquire(ctx, provider, s.gps.Location)
	if err != nil {
		s.env.Metrics.ObserveGPSRejection("attendance", string(apperr.KindOf(err)))
		return PunchResult{}, err
	}
	res, err := s.gps.Attendance.Verify(fix, profile.Territories)
	if err != nil {
		s.env.Metrics.ObserveGPSRejection("attendance", string(apperr.KindOf(err)))
		return PunchResult{}, err
	}

	day, err := s.load(ctx, actor.UserID, s.today())
	if err != nil {
		return PunchResult{}, err
	}
	next, err := day.Record(attendance.NewPunch(s.env.NewID(), typ, fix, res, s.env.Now()))
	if err != nil {
		return PunchResult{}, err
	}
	version, err := store.PutJSON(ctx, s.env.Store, store.Attendance, next.ID, next, day.Version)
	if err != nil {
		return PunchResult{}, err
	}
	next.Version = version
	s.env.Metrics.ObservePunch(string(typ), res.Matched())

	next = s.export(ctx, next)

	msg, level := attendance.StatusMessage(typ, res)
	return PunchResult{Record: next, Geofence: res, Message: msg, Level: level}, nil
}

// export copies the record to the file store and flags it as exported.
// Failures leave the record unflagged for a later retry.
func (s *Attendance) export(ctx context.Context, d attendance.Daily) attendance.Daily {
	if s.exporter == nil {
		return d
	}
	if _, err := s.exporter.Export(ctx, d); err != nil {
		s.env.Log.Warn("attendance export failed", zap.String("record", d.ID), zap.Error(err))
		return d
	}
	synced := d
	synced.IsSyncedToSheets = true
	version, err := store.PutJSON(ctx, s.env.Store, store.Attendance, synced.ID, synced, d.Version)
	if err != nil {
		s.env.Log.Warn("attendance sync flag not saved", zap.String("record", d.ID), zap.Error(err))
		return d
	}
	synced.Version = version
	return synced
}

// ExportPending exports every record not yet flagged as exported and
// returns how many succeeded.
func (s *Attendance) ExportPending(ctx context.Context) (int, error) {
	if s.exporter == nil {
		return 0, nil
	}
	docs, err := s.env.Store.Query(ctx, store.Attendance)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range docs {
		d, err := decodeDoc[attendance.Daily](doc)
		if err != nil {
			return n, err
		}
		if d.IsSyncedToSheets {
			continue
		}
		d.Version = doc.Version
		if s.export(ctx, d).IsSyncedToSheets {
			n++
		}
	}
	return n, nil
}

// TeamStatus is the live dashboard for a manager: each MR or ASM on the
// team with today's status.
func (s *Attendance) TeamStatus(ctx context.Context, actor roster.Actor) ([]attendance.MemberStatus, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	members, err := s.users.Team(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []attendance.MemberStatus{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	records, err := store.QueryJSON[attendance.Daily](ctx, s.env.Store, store.Attendance,
		store.Eq("date", s.today()), store.In("userId", ids...))
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]attendance.Daily, len(records))
	for _, r := range records {
		byUser[r.UserID] = r
	}
	return attendance.TeamStatus(members, byUser), nil
}
