package service

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/notify"
	"go.uber.org/zap"
)

type (
	AllocationService   = app.AllocationUseCase
	WeeklyService       = app.WeeklyUseCase
	ReallocationService = app.ReallocationUseCase
	ExpirationService   = app.ExpirationUseCase
	ImportService       = app.ImportPlanUseCase
	NotificationService = app.NotificationUseCase
)

// Deps are the collaborators shared by every service. DB serves reads that
// run outside a unit of work; everything that writes goes through UoW.
type Deps struct {
	DB        db.DBTX
	UoW       db.UnitOfWork
	Caps      Capabilities
	Publisher notify.Publisher
	Logger    *zap.Logger
	Observer  UseCaseObserver
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Caps == nil {
		d.Caps = NewStaticCapabilities(nil)
	}
	if d.Publisher == nil {
		d.Publisher = notify.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Observer == nil {
		d.Observer = NoopUseCaseObserver{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Services is the wired set used by the CLI and the HTTP API.
type Services struct {
	Allocations   AllocationService
	Weekly        WeeklyService
	Reallocations ReallocationService
	Expiration    ExpirationService
	Import        ImportService
	Notifications NotificationService
}

func New(deps Deps) *Services {
	realloc := newReallocationService(deps)
	return &Services{
		Allocations:   newAllocationService(deps, realloc),
		Weekly:        NewWeeklyService(deps),
		Reallocations: realloc,
		Expiration:    NewExpirationService(deps),
		Import:        NewImportService(deps),
		Notifications: NewNotificationService(deps),
	}
}
