// Package events defines how order events leave and re-enter the service,
// independent of the broker carrying them.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

type Publisher interface {
	PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error
}

// Handler processes one delivered order event.
type Handler func(ctx context.Context, evt models.OrderEvent) error

// Noop drops events; used when no broker is configured.
type Noop struct{}

func (Noop) PublishOrderEvent(context.Context, models.OrderEvent) error { return nil }

func Encode(evt models.OrderEvent) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return b, nil
}

func Decode(body []byte) (models.OrderEvent, error) {
	var evt models.OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	if evt.OrderID == "" || evt.Type == "" {
		return evt, fmt.Errorf("order event missing order_id or type")
	}
	return evt, nil
}
