package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// Default preview bounding box
const (
	DefaultPreviewWidth  = 960
	DefaultPreviewHeight = 540
)

// scaler derives the preview thumbnail from the raw frame
type scaler struct {
	bounds image.Point
}

func (s *scaler) process(item *WorkItem) {
	if item.Raw == nil {
		return
	}
	thumb := fitWithin(*item.Raw, s.bounds)
	item.Thumbnail = &thumb
}

// fitWithin returns a copy of src no larger than bounds, keeping the aspect
// ratio. Smaller images are copied unscaled.
func fitWithin(src gocv.Mat, bounds image.Point) gocv.Mat {
	size := fitSize(image.Pt(src.Cols(), src.Rows()), bounds)
	if size.X == src.Cols() && size.Y == src.Rows() {
		return src.Clone()
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationArea)
	return dst
}

func fitSize(size, bounds image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 || (size.X <= bounds.X && size.Y <= bounds.Y) {
		return size
	}

	// Scale by whichever side overflows more
	if size.X*bounds.Y >= size.Y*bounds.X {
		h := size.Y * bounds.X / size.X
		return image.Pt(bounds.X, max(h, 1))
	}
	w := size.X * bounds.Y / size.Y
	return image.Pt(max(w, 1), bounds.Y)
}
