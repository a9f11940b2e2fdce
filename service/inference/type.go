package inference

import (
	"context"

	"github.com/khaledhikmat/rtnet-go/model"
)

// IService is the model capability used by the inference worker.
// Predict is never called concurrently.
type IService interface {
	Name() string
	Predict(ctx context.Context, clip model.Clip) ([]float32, error)
	Close() error
}
