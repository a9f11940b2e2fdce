package camera

import (
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
)

// matToFrame converts a BGR Mat into an RGB frame.
func matToFrame(mat gocv.Mat) (*model.Frame, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, xerrors.Errorf("converting mat: %w", err)
	}
	return model.FrameFromImage(img), nil
}

// frameToMat returns a BGR Mat the caller must Close.
func frameToMat(f *model.Frame) (gocv.Mat, error) {
	return gocv.ImageToMatRGB(f.RGBA())
}

// resizedFrame scales src to size and converts it. src is left untouched.
func resizedFrame(src gocv.Mat, size image.Point) (*model.Frame, error) {
	if src.Cols() == size.X && src.Rows() == size.Y {
		return matToFrame(src)
	}

	resized := gocv.NewMat()
	defer resized.Close() // Crucial to close the image to avoid memory leaks

	if err := gocv.Resize(src, &resized, size, 0, 0, gocv.InterpolationLinear); err != nil {
		return nil, xerrors.Errorf("resizing frame: %w", err)
	}
	return matToFrame(resized)
}
