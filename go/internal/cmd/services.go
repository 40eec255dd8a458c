package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/planning-poker/go/internal/room"
	roomdb "github.com/mcdev12/planning-poker/go/internal/room/db"
	"github.com/mcdev12/planning-poker/go/internal/room/gateway"
	"github.com/mcdev12/planning-poker/go/internal/users"
	usersdb "github.com/mcdev12/planning-poker/go/internal/users/db"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
	workitemdb "github.com/mcdev12/planning-poker/go/internal/workitem/db"
)

type Services struct {
	Users     *users.Service
	Sessions  *room.Service
	WorkItems *workitem.Service
	Gateway   *gateway.Service
	Reaper    *room.Reaper
}

func setupServices(pool *pgxpool.Pool, config *Config) (*Services, error) {
	// Database layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	// Users
	userRepo := users.NewRepository(usersdb.New(pool))
	userApp := users.NewApp(userRepo)
	userService := users.NewService(userApp)

	// Work items
	workItemRepo := workitem.NewRepository(workitemdb.New(pool))
	workItemApp := workitem.NewApp(workItemRepo)

	// Rooms
	sessionRepo := room.NewRepository(roomdb.New(pool), pool).WithEventSource(config.Gateway.NodeID)
	projector := room.NewProjector(userApp, config.Room.Locale, config.Room.LookupConcurrency)
	coordinator := room.NewCoordinator(sessionRepo, workItemApp, projector)
	presence := room.NewPresence(clock)

	// Gateway
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.OpTimeout = config.Room.OpTimeout
	gatewayConfig.RelayConfig.URL = config.Gateway.NATSURL
	gatewayConfig.RelayConfig.Subject = config.Gateway.Subject
	gatewayConfig.RelayConfig.MembersSubject = config.Gateway.MembersSubject
	gatewayConfig.RelayConfig.QueryTimeout = config.Gateway.QueryTimeout
	gatewayConfig.RelayConfig.NodeID = config.Gateway.NodeID
	roomGateway, err := gateway.NewService(gatewayConfig, coordinator, presence, workItemApp)
	if err != nil {
		return nil, fmt.Errorf("failed to create room gateway: %w", err)
	}

	return &Services{
		Users:     userService,
		Sessions:  room.NewService(coordinator, presence, roomGateway),
		WorkItems: workitem.NewService(workItemApp, roomGateway),
		Gateway:   roomGateway,
		Reaper:    room.NewReaper(roomGateway, sessionRepo, presence, clock, config.Room.ReapInterval),
	}, nil
}
