package pipeline

import (
	"log/slog"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// Chain runs post-processors in declaration order and merges their outputs.
// The prediction goes in first under "prediction"; any key a processor emits
// replaces an earlier one with the same name (last write wins).
type Chain struct {
	procs []PostProcessor
}

func NewChain(procs ...PostProcessor) *Chain {
	return &Chain{procs: procs}
}

func (c *Chain) Len() int {
	return len(c.procs)
}

func (c *Chain) Apply(p model.Prediction) model.Result {
	result := model.Result{model.PredictionKey: p}

	for i, proc := range c.procs {
		for k, v := range proc.Process(p) {
			if _, exists := result[k]; exists {
				lgr.Logger.Debug("post-processor key collision, last write wins",
					slog.String("key", k),
					slog.Int("processor", i),
				)
			}
			result[k] = v
		}
	}
	return result
}
