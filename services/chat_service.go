package services

import (
	"context"

	"chatroom/contract"
	"chatroom/domain"
	"chatroom/runtime"
	"chatroom/search"
)

type IChatService interface {
	Connect(username string, sink contract.EventSink) error
	Disconnect(username string)
	Dispatch(cmd domain.Command)
	RoomExists(name string) (bool, error)
	CreateRoom(name, createdBy string) (domain.Room, error)
	ListRooms() ([]domain.Room, error)
	MembersOf(room string) []string
	Search(ctx context.Context, room, terms string, limit int) ([]search.Hit, error)
	Stats() runtime.Stats
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
	index        *search.Index
}

func NewChatService(o *runtime.Orchestrator, index *search.Index) *ChatService {
	return &ChatService{orchestrator: o, index: index}
}

func (s *ChatService) Connect(username string, sink contract.EventSink) error {
	return s.orchestrator.Connect(username, sink)
}

func (s *ChatService) Disconnect(username string) {
	s.orchestrator.Disconnect(username)
}

func (s *ChatService) Dispatch(cmd domain.Command) {
	s.orchestrator.Dispatch(cmd)
}

func (s *ChatService) RoomExists(name string) (bool, error) {
	return s.orchestrator.RoomExists(name)
}

func (s *ChatService) CreateRoom(name, createdBy string) (domain.Room, error) {
	return s.orchestrator.CreateRoom(name, createdBy)
}

func (s *ChatService) ListRooms() ([]domain.Room, error) {
	return s.orchestrator.ListRooms()
}

func (s *ChatService) MembersOf(room string) []string {
	return s.orchestrator.MembersOf(room)
}

func (s *ChatService) Search(ctx context.Context, room, terms string, limit int) ([]search.Hit, error) {
	return s.index.Search(ctx, room, terms, limit)
}

func (s *ChatService) Stats() runtime.Stats {
	return s.orchestrator.Stats()
}
