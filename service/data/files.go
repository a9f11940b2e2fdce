package data

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
	"github.com/khaledhikmat/rtnet-go/service/config"
)

// Journals rotate at this size (MB) and keep this many backups.
const (
	journalMaxSize    = 50
	journalMaxBackups = 3
)

// filesDBService persists results, run stats and errors as JSON lines.
// A journal whose file is not configured discards its entities.
type filesDBService struct {
	CfgSvc config.IService

	mu      sync.Mutex
	results io.WriteCloser
	stats   io.WriteCloser
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc:  cfgsvc,
		results: newJournal(cfgsvc.GetResultFile()),
		stats:   newJournal(cfgsvc.GetStatsFile()),
	}
}

func newJournal(path string) io.WriteCloser {
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    journalMaxSize,
		MaxBackups: journalMaxBackups,
	}
}

func (svc *filesDBService) RetrieveLabels() (postproc.Labels, error) {
	input := svc.CfgSvc.GetLabelsPath()
	if input == "" {
		return postproc.FitnessLabels(), nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, xerrors.Errorf("reading labels %s: %w", input, err)
	}

	labels, err := postproc.ParseLabels(data)
	if err != nil {
		return nil, xerrors.Errorf("parsing labels %s: %w", input, err)
	}
	return labels, nil
}

func (svc *filesDBService) NewResult(result model.Result) error {
	entry := struct {
		Timestamp int64        `json:"timestamp"`
		Result    model.Result `json:"result"`
	}{
		Timestamp: time.Now().Unix(),
		Result:    result,
	}
	return svc.newEntity(svc.results, entry)
}

func (svc *filesDBService) NewRunStats(stats model.RunStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(svc.stats, stats)
}

func (svc *filesDBService) NewError(err error) error {
	if err == nil {
		return nil
	}

	// Determine if the error is custom
	var customErr model.CustomError
	if !errors.As(err, &customErr) {
		customErr.Processor = "N/A"
		customErr.Inner = err
		customErr.Message = err.Error()
		customErr.StackTrace = "N/A"
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	// Create an error object to persist
	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	return svc.newEntity(svc.stats, errorData)
}

func (svc *filesDBService) newEntity(w io.Writer, entity any) error {
	if w == nil {
		return nil
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return xerrors.Errorf("marshalling entity: %w", err)
	}
	data = append(data, '\n')

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, err := w.Write(data); err != nil {
		return xerrors.Errorf("writing entity: %w", err)
	}
	return nil
}

func (svc *filesDBService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var errs []error
	for _, w := range []io.WriteCloser{svc.results, svc.stats} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}
