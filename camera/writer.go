package camera

import (
	"image"
	"log/slog"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// WriterOpener opens OpenCV video writers with a fixed fourcc.
type WriterOpener struct {
	FourCC string
}

func (o WriterOpener) Open(path string, fps float64, width, height int) (pipeline.VideoWriter, error) {
	fourcc := o.FourCC
	if fourcc == "" {
		fourcc = "mp4v"
	}

	vw, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)
	if err != nil {
		lgr.Logger.Error("error creating video writer", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, xerrors.Errorf("video writer for %s did not open (fourcc %s)", path, fourcc)
	}
	return &writer{vw: vw, size: image.Pt(width, height)}, nil
}

type writer struct {
	vw   *gocv.VideoWriter
	size image.Point
}

func (w *writer) Write(f *model.Frame) error {
	mat, err := frameToMat(f)
	if err != nil {
		return xerrors.Errorf("converting frame: %w", err)
	}
	defer mat.Close()

	if mat.Cols() == w.size.X && mat.Rows() == w.size.Y {
		return w.vw.Write(mat)
	}

	lgr.Logger.Warn("frame dimensions do not match video dimensions, resizing frame",
		slog.Int("frame_cols", mat.Cols()),
		slog.Int("frame_rows", mat.Rows()),
		slog.Int("video_cols", w.size.X),
		slog.Int("video_rows", w.size.Y),
	)

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(mat, &resized, w.size, 0, 0, gocv.InterpolationLinear); err != nil {
		return xerrors.Errorf("resizing frame: %w", err)
	}
	return w.vw.Write(resized)
}

func (w *writer) Close() error {
	return w.vw.Close()
}
