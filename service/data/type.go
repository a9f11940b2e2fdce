package data

import (
	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

type IService interface {
	RetrieveLabels() (postproc.Labels, error)

	NewResult(result model.Result) error
	NewRunStats(stats model.RunStats) error
	NewError(err error) error

	Close() error
}
