package service

import (
	"context"
	"errors"
	"fmt"

	"taxmanager/internal/model"
	"taxmanager/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateStationRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
	Status   string `json:"status" binding:"omitempty,oneof=active inactive maintenance"`
}

type UpdateStationRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=active inactive maintenance"`
}

type StationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

var ErrStationNotFound = errors.New("charge station not found")

// --- Interface ---

type StationService interface {
	CreateStation(ctx context.Context, req CreateStationRequest, userID string) (StationResponse, error)
	GetStation(ctx context.Context, id string) (StationResponse, error)
	ListStations(ctx context.Context, userID string, page, limit int) ([]StationResponse, int64, error)
	UpdateStation(ctx context.Context, id string, req UpdateStationRequest, userID string) (StationResponse, error)
	DeleteStation(ctx context.Context, id string, userID string) error
}

type stationService struct {
	repo  repository.StationRepository
	audit AuditService
}

func NewStationService(repo repository.StationRepository, audit AuditService) StationService {
	return &stationService{repo: repo, audit: audit}
}

func toStationResponse(s model.ChargeStation) StationResponse {
	return StationResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Location:  s.Location,
		Status:    s.Status,
		UserID:    s.UserID.String(),
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *stationService) CreateStation(ctx context.Context, req CreateStationRequest, userID string) (StationResponse, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return StationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	status := req.Status
	if status == "" {
		status = model.StationActive
	}

	station := model.ChargeStation{
		Name:     req.Name,
		Location: req.Location,
		Status:   status,
		UserID:   ownerID,
	}
	if err := s.repo.Create(ctx, &station); err != nil {
		return StationResponse{}, fmt.Errorf("failed to create charge station: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateStation, station.ID.String(), station.Name, req)

	return toStationResponse(station), nil
}

func (s *stationService) GetStation(ctx context.Context, id string) (StationResponse, error) {
	station, err := s.findStation(ctx, id)
	if err != nil {
		return StationResponse{}, err
	}
	return toStationResponse(*station), nil
}

// ListStations returns the user's own stations; admins see every station.
func (s *stationService) ListStations(ctx context.Context, userID string, page, limit int) ([]StationResponse, int64, error) {
	var owner *uuid.UUID
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user id: %w", err)
		}
		owner = &parsed
	}

	stations, total, err := s.repo.List(ctx, owner, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch charge stations: %w", err)
	}

	res := make([]StationResponse, 0, len(stations))
	for _, station := range stations {
		res = append(res, toStationResponse(station))
	}

	return res, total, nil
}

func (s *stationService) UpdateStation(ctx context.Context, id string, req UpdateStationRequest, userID string) (StationResponse, error) {
	station, err := s.findStation(ctx, id)
	if err != nil {
		return StationResponse{}, err
	}

	station.Name = req.Name
	station.Location = req.Location
	station.Status = req.Status
	if err := s.repo.Update(ctx, station); err != nil {
		return StationResponse{}, fmt.Errorf("failed to update charge station: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdateStation, station.ID.String(), station.Name, req)

	return toStationResponse(*station), nil
}

func (s *stationService) DeleteStation(ctx context.Context, id string, userID string) error {
	station, err := s.findStation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, station.ID); err != nil {
		return fmt.Errorf("failed to delete charge station: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteStation, id, station.Name, map[string]string{"deleted_id": id})

	return nil
}

func (s *stationService) findStation(ctx context.Context, id string) (*model.ChargeStation, error) {
	stationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid station id: %w", err)
	}

	station, err := s.repo.GetByID(ctx, stationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to fetch charge station: %w", err)
	}
	return station, nil
}
