package pipeline

import (
	"gocv.io/x/gocv"
)

// DefaultDiffGain amplifies the thumbnail-average difference
const DefaultDiffGain = 10

// diffOffset centres the change image on mid-grey
const diffOffset = 127

// differ renders how far the current thumbnail deviates from the average
type differ struct {
	gain float32
}

func (d *differ) process(item *WorkItem) {
	if item.Thumbnail == nil || item.Average == nil {
		return
	}
	if item.Thumbnail.Rows() != item.Average.Rows() || item.Thumbnail.Cols() != item.Average.Cols() {
		return
	}
	diff := d.compute(*item.Thumbnail, *item.Average)
	item.Diff = &diff
}

// compute returns |delta - mean(delta)| + 127 as an 8-bit image, where
// delta = (intensity(thumb) - intensity(avg)) * gain.
func (d *differ) compute(thumb, avg gocv.Mat) gocv.Mat {
	t := intensity(thumb)
	defer t.Close()
	a := intensity(avg)
	defer a.Close()

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.Subtract(t, a, &delta)
	delta.MultiplyFloat(d.gain)

	// Remove the global brightness shift so only local change stands out
	mean := delta.Mean()
	delta.SubtractFloat(float32(mean.Val1))

	out := gocv.NewMat()
	gocv.ConvertScaleAbs(delta, &out, 1, 0)
	out.AddUChar(diffOffset)
	return out
}

// intensity converts img to a single-channel float32 image
func intensity(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch img.Channels() {
	case 1:
		img.CopyTo(&gray)
	case 4:
		gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}

	f := gocv.NewMat()
	gray.ConvertTo(&f, gocv.MatTypeCV32F)
	gray.Close()
	return f
}
