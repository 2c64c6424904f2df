package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatroom/contract"
	"chatroom/domain"
	"chatroom/moderation"
	"chatroom/repositories"
	"chatroom/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

// Orchestrator owns the command pipeline of the broadcast engine:
//
//	Dispatch -> commands -> moderation -> roomOps -> dispatch worker
//
// Session goroutines talk to it from the edge; the supervised workers
// do the actual room mutation and fanout.
type Orchestrator struct {
	log             *slog.Logger
	supervisor      contract.ISupervisor
	presence        *Presence
	registry        *Registry
	messages        repositories.IMessageRepository
	rooms           repositories.IRoomRepository
	commands        chan domain.Command
	roomOps         chan domain.Command
	dispatchWorker  *workers.DispatchWorker
	metricInterval  time.Duration
	charReplacement rune
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	presence *Presence, registry *Registry,
	messages repositories.IMessageRepository, rooms repositories.IRoomRepository,
	bufferSize, historyLimit int, metricInterval time.Duration,
	charReplacement rune, permanentSinks ...contract.EventSink) *Orchestrator {

	commands := make(chan domain.Command, bufferSize)
	roomOps := make(chan domain.Command, bufferSize)

	return &Orchestrator{
		log:             log,
		supervisor:      supervisor,
		presence:        presence,
		registry:        registry,
		messages:        messages,
		rooms:           rooms,
		commands:        commands,
		roomOps:         roomOps,
		dispatchWorker:  workers.NewDispatchWorker(log, presence, registry, messages, historyLimit, roomOps, permanentSinks),
		metricInterval:  metricInterval,
		charReplacement: charReplacement,
	}
}

// Dispatch hands a command to the pipeline without ever blocking the
// calling session goroutine. A full channel means the engine is
// saturated; the command is dropped and logged rather than queued
// unboundedly.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	select {
	case o.commands <- cmd:
	default:
		o.log.Warn(fmt.Sprintf("Command channel full for room %q, dropping command", cmd.RoomName()))
	}
}

// Connect claims the presence slot for username and announces the
// arrival to everyone online. The announce goes through the pipeline
// so the active-user list reflects the settled registration.
func (o *Orchestrator) Connect(username string, s contract.EventSink) error {
	if err := o.presence.Register(username, s); err != nil {
		return err
	}
	o.Dispatch(domain.PresenceCommand{Username: username})
	return nil
}

// Disconnect tears a session down from any state: membership first,
// presence second, then the departure announce. Safe to call more than
// once.
func (o *Orchestrator) Disconnect(username string) {
	if !o.presence.IsOnline(username) {
		return
	}
	if left := o.registry.LeaveAll(username); len(left) > 0 {
		o.log.Debug("Session left rooms on disconnect",
			"username", username, "rooms", strings.Join(left, ","))
	}
	o.presence.Unregister(username)
	o.Dispatch(domain.PresenceCommand{Username: username, Left: true})
}

func (o *Orchestrator) RoomExists(name string) (bool, error) {
	return o.rooms.Exists(name)
}

func (o *Orchestrator) CreateRoom(name, createdBy string) (domain.Room, error) {
	return o.rooms.GetOrCreate(name, createdBy)
}

func (o *Orchestrator) ListRooms() ([]domain.Room, error) {
	return o.rooms.List()
}

func (o *Orchestrator) MembersOf(room string) []string {
	return o.registry.Members(room)
}

// Stats summarizes engine state for the /stats endpoint.
type Stats struct {
	Online           int    `json:"online"`
	ActiveRooms      int    `json:"active_rooms"`
	DeliveryFailures uint64 `json:"delivery_failures"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Online:           len(o.presence.Online()),
		ActiveRooms:      o.registry.RoomCount(),
		DeliveryFailures: o.dispatchWorker.DeliveryFailures(),
	}
}

// Start prepares the moderation stage, registers all workers with the
// supervisor, and runs them until ctx is canceled. Heavy preparation
// (loading dictionaries, building the automaton) happens before any
// worker starts.
func (o *Orchestrator) Start(ctx context.Context) error {
	moderationWorker, err := o.prepareModeration("censored", o.charReplacement)
	if err != nil {
		return err
	}

	telemetryWorker := workers.NewTelemetryWorker(o.log, o.metricInterval,
		o.commands, o.roomOps, o.dispatchWorker.DeliveryFailures)

	o.supervisor.Add(moderationWorker)
	o.supervisor.Add(o.dispatchWorker)
	o.supervisor.Add(telemetryWorker)

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads censored words and builds the Aho-Corasick
// automaton.
func (o *Orchestrator) prepareModeration(path string, charReplacement rune) (contract.Worker, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return nil, err
	}

	return workers.NewModerationWorker(moderator, o.commands, o.roomOps, o.log), nil
}

// Stop initiates a graceful shutdown by canceling the supervised
// context; Start returns once all workers drained.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
