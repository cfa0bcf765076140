package app

import (
	"go.uber.org/zap"

	"palaver/internal/domain"
	"palaver/internal/logging"
	"palaver/internal/protocol/group"
	"palaver/internal/room"
	identitysvc "palaver/internal/services/identity"
	"palaver/internal/store"
)

// Wire bundles the store, services and clients for the CLI.
type Wire struct {
	Identity domain.IdentityService
	Store    domain.IdentityStore
	Room     *room.Client
	Log      *zap.Logger
	Timing   group.Timing
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	identityStore := store.NewIdentityFileStore(cfg.Home)
	idSvc := identitysvc.New(identityStore)

	rc := room.NewClient(cfg.RoomURL)
	if cfg.HTTP != nil {
		rc.HTTP = cfg.HTTP
	}

	timing := group.DefaultTiming
	if cfg.Heartbeat > 0 {
		timing.Heartbeat = cfg.Heartbeat
	}
	if cfg.AckGrace > 0 {
		timing.AckGrace = cfg.AckGrace
	}

	return &Wire{
		Identity: idSvc,
		Store:    identityStore,
		Room:     rc,
		Log:      log,
		Timing:   timing,
	}, nil
}
