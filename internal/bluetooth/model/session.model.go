package model

import (
	"fmt"
	"math"
	"time"

	"smartpen/internal/identity"
	"smartpen/pkg/apperr"
	"smartpen/pkg/validate"
)

// StrokeSample is one pen event as reported by the device. Timestamp is in
// epoch milliseconds.
type StrokeSample struct {
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Pressure  float64 `json:"pressure" bson:"pressure" validate:"gte=0"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// Session is an append-only batch of samples from one device.
type Session struct {
	ID         identity.ID    `json:"id" bson:"id"`
	UserID     identity.Owner `json:"user_id" bson:"user_id"`
	DeviceID   string         `json:"device_id" bson:"device_id"`
	StrokeData []StrokeSample `json:"stroke_data" bson:"stroke_data"`
	Timestamp  time.Time      `json:"timestamp" bson:"timestamp"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

type BatchRequest struct {
	DeviceID   string         `json:"device_id" validate:"required"`
	StrokeData []StrokeSample `json:"stroke_data" validate:"required,min=1,dive"`
	Timestamp  time.Time      `json:"timestamp" validate:"required"`
}

func (r BatchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	for i, s := range r.StrokeData {
		if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
			return fmt.Errorf("%w: stroke_data[%d] has invalid coordinates", apperr.ErrValidation, i)
		}
	}
	return nil
}

type IngestResponse struct {
	Message string      `json:"message"`
	ID      identity.ID `json:"id"`
}
