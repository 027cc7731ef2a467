package testfixtures

import (
	"log/slog"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and shared repositories.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Repos       *SQLiteHarness
	Defaults    scheduler.WorkingHoursProfile
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(repos *SQLiteHarness, opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Repos:       repos,
		Defaults:    scheduler.DefaultProfile("UTC"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithDefaults overrides the default working-hours profile.
func WithDefaults(defaults scheduler.WorkingHoursProfile) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Defaults = defaults
	}
}

// NewAvailabilityService builds an availability service on the factory's
// repositories and clock.
func (f *ServiceFactory) NewAvailabilityService() *application.AvailabilityService {
	return application.NewAvailabilityService(
		f.Repos.Participants, f.Repos.Policies, f.Repos.Bookings, f.Repos.Blocks,
		f.Defaults, f.Logger, f.Clock.NowFunc(),
	)
}

// NewGroupService builds a group availability service.
func (f *ServiceFactory) NewGroupService() *application.GroupService {
	return application.NewGroupService(
		f.Repos.Participants, f.Repos.Policies, f.Repos.Bookings, f.Repos.Blocks,
		f.Defaults, f.Logger, f.Clock.NowFunc(),
	)
}

// NewTeamService builds a team service.
func (f *ServiceFactory) NewTeamService() *application.TeamService {
	return application.NewTeamService(
		f.Repos.Teams, f.Repos.Participants, f.Repos.Policies, f.Repos.Bookings, f.Repos.Blocks,
		f.Defaults, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger,
	)
}

// NewParticipantService builds a participant service sharing the supplied
// availability service's slot cache.
func (f *ServiceFactory) NewParticipantService(availability *application.AvailabilityService) *application.ParticipantService {
	return application.NewParticipantService(
		f.Repos.Participants, f.Repos.Policies, f.Repos.Blocks, f.Repos.Bookings,
		f.Defaults, availability, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger,
	)
}

// NewSessionService builds a negotiation session service.
func (f *ServiceFactory) NewSessionService(availability *application.AvailabilityService) *application.SessionService {
	return application.NewSessionService(
		f.Repos.Sessions, f.Repos.Participants, f.Repos.Policies, f.Repos.Bookings, f.Repos.Blocks,
		f.Defaults, nil, availability, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger,
	)
}
