package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	"github.com/squadbid/storefront/internal/app/storage"
	"github.com/squadbid/storefront/pkg/logger"
)

// ErrUnknownPoint is returned when a selection names a collection point the
// backend does not list.
var ErrUnknownPoint = errors.New("unknown collection point")

// Backend is the subset of the agent API the service depends on.
type Backend interface {
	ListCollectionPoints(ctx context.Context) ([]agent.CollectionPoint, error)
	AssignAgent(ctx context.Context, orderID string, sel agent.Selection) error
}

// Service manages collection points and the customer's stored selection, and
// performs agent assignment on behalf of checkout.
type Service struct {
	backend    Backend
	selections storage.SelectionStore
	log        *logger.Logger
}

// New creates the agents service.
func New(backend Backend, selections storage.SelectionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("agents")
	}
	return &Service{backend: backend, selections: selections, log: log}
}

// ListPoints returns the available pickup locations.
func (s *Service) ListPoints(ctx context.Context) ([]agent.CollectionPoint, error) {
	points, err := s.backend.ListCollectionPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collection points: %w", err)
	}
	return points, nil
}

// Select stores the customer's collection point choice after checking it
// against the live list.
func (s *Service) Select(ctx context.Context, pointID string) (agent.Selection, error) {
	points, err := s.ListPoints(ctx)
	if err != nil {
		return agent.Selection{}, err
	}
	for _, p := range points {
		if p.ID == pointID {
			sel := agent.Selection{Point: p}
			if err := s.selections.SaveSelection(ctx, sel); err != nil {
				return agent.Selection{}, fmt.Errorf("save selection: %w", err)
			}
			s.log.WithField("point", p.LocationName).Info("collection point selected")
			return sel, nil
		}
	}
	return agent.Selection{}, fmt.Errorf("collection point %q: %w", pointID, ErrUnknownPoint)
}

// Selection returns the stored choice. storage.ErrNotFound means the customer
// has not picked a point yet.
func (s *Service) Selection(ctx context.Context) (agent.Selection, error) {
	return s.selections.GetSelection(ctx)
}

// AssignAgent routes an order to the given collection point. It satisfies the
// checkout orchestrator's assignment dependency.
func (s *Service) AssignAgent(ctx context.Context, orderID string, sel agent.Selection) error {
	if sel.IsZero() {
		return errors.New("no collection point in selection")
	}
	if err := s.backend.AssignAgent(ctx, orderID, sel); err != nil {
		return fmt.Errorf("assign agent for order %s: %w", orderID, err)
	}
	s.log.WithFields(map[string]interface{}{
		"order_id": orderID,
		"point":    sel.Point.LocationName,
	}).Info("agent assigned")
	return nil
}
