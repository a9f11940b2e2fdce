package dnn

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
	"github.com/khaledhikmat/rtnet-go/service/inference"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

type Options struct {
	ModelPath string
	UseGPU    bool
	// Softmax normalises raw logits. Leave off for models that end in a softmax layer.
	Softmax bool
	// Scale is applied to the 0-255 pixel values before inference.
	Scale float32
}

// dnnService runs an ONNX clip model through OpenCV's DNN module.
// WARNING: gocv.Net is not thread-safe; the inference worker is its only caller.
type dnnService struct {
	net  gocv.Net
	opts Options
}

func New(opts Options) (inference.IService, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, xerrors.Errorf("model %s: %w", opts.ModelPath, err)
	}
	if opts.Scale == 0 {
		opts.Scale = 1.0 / 255.0
	}

	lgr.Logger.Info("loading clip model",
		slog.String("model", opts.ModelPath),
		slog.Bool("gpu", opts.UseGPU),
		slog.String("openCV", gocv.Version()),
	)

	net := gocv.ReadNet(opts.ModelPath, "")
	if net.Empty() {
		return nil, xerrors.Errorf("error reading model %s", opts.ModelPath)
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if opts.UseGPU {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting target: %w", err)
	}

	return &dnnService{net: net, opts: opts}, nil
}

func (svc *dnnService) Name() string {
	return "dnn"
}

func (svc *dnnService) Predict(_ context.Context, clip model.Clip) ([]float32, error) {
	tensor := clip.Tensor()
	data := make([]byte, 4*len(tensor))
	for i, v := range tensor {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v*svc.opts.Scale))
	}

	blob, err := gocv.NewMatWithSizesFromBytes(clip.Shape(), gocv.MatTypeCV32F, data)
	if err != nil {
		return nil, xerrors.Errorf("building input blob: %w", err)
	}
	defer blob.Close()

	svc.net.SetInput(blob, "")
	output := svc.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("empty model output for clip %d", clip.Seq)
	}

	values, err := output.DataPtrFloat32()
	if err != nil {
		return nil, xerrors.Errorf("reading model output: %w", err)
	}

	// DataPtrFloat32 aliases the Mat buffer, which is freed on Close
	out := make([]float32, len(values))
	copy(out, values)

	if svc.opts.Softmax {
		out = postproc.Softmax(out)
	}
	return out, nil
}

func (svc *dnnService) Close() error {
	return svc.net.Close()
}
