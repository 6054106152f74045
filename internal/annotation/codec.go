// Package annotation converts between absolute pixel bounding boxes and
// the normalized center-format lines stored in label files.
package annotation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// Box is an absolute pixel bounding box described by two opposite corners.
// Corner ordering is not significant; spans are taken as absolute values.
type Box struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Line is a single normalized annotation: class id plus center and size,
// each divided by the image dimensions, all in [0,1].
type Line struct {
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// Encode converts an absolute bounding box into a normalized line.
// Zero or negative image dimensions fail fast rather than emitting Inf/NaN.
func Encode(b Box, imgW, imgH int, classID int) (Line, error) {
	if err := checkDimensions(imgW, imgH); err != nil {
		return Line{}, err
	}
	if classID < 0 {
		return Line{}, errors.Newf("class id must be non-negative, got %d", classID).
			Component("annotation").
			Category(errors.CategoryValidation).
			Build()
	}

	w := float64(imgW)
	h := float64(imgH)

	return Line{
		ClassID: classID,
		XCenter: (b.X1 + b.X2) / 2 / w,
		YCenter: (b.Y1 + b.Y2) / 2 / h,
		Width:   math.Abs(b.X2-b.X1) / w,
		Height:  math.Abs(b.Y2-b.Y1) / h,
	}, nil
}

// Decode converts a normalized line back into an absolute bounding box.
// The returned box has X1 <= X2 and Y1 <= Y2.
func Decode(l Line, imgW, imgH int) (Box, error) {
	if err := checkDimensions(imgW, imgH); err != nil {
		return Box{}, err
	}

	w := float64(imgW)
	h := float64(imgH)

	halfW := l.Width * w / 2
	halfH := l.Height * h / 2
	cx := l.XCenter * w
	cy := l.YCenter * h

	return Box{
		X1: cx - halfW,
		Y1: cy - halfH,
		X2: cx + halfW,
		Y2: cy + halfH,
	}, nil
}

func checkDimensions(imgW, imgH int) error {
	if imgW <= 0 || imgH <= 0 {
		return errors.Newf("image dimensions must be positive, got %dx%d", imgW, imgH).
			Component("annotation").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Format renders the line in the on-disk label format. Ten decimal digits
// keep the round-trip within one pixel for images up to 10,000 px.
func (l Line) Format() string {
	return fmt.Sprintf("%d %.10f %.10f %.10f %.10f",
		l.ClassID, l.XCenter, l.YCenter, l.Width, l.Height)
}

// ParseLine parses a single label-file line. Fields are whitespace
// delimited; extra surrounding whitespace is tolerated.
func ParseLine(s string) (Line, error) {
	fields := strings.Fields(s)
	if len(fields) != 5 {
		return Line{}, parseErr(s, "expected 5 fields, got %d", len(fields))
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Line{}, parseErr(s, "invalid class id %q", fields[0])
	}
	if classID < 0 {
		return Line{}, parseErr(s, "negative class id %d", classID)
	}

	vals := make([]float64, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Line{}, parseErr(s, "invalid coordinate %q", f)
		}
		if v < 0 || v > 1 {
			return Line{}, parseErr(s, "coordinate %q outside [0,1]", f)
		}
		vals[i] = v
	}

	return Line{
		ClassID: classID,
		XCenter: vals[0],
		YCenter: vals[1],
		Width:   vals[2],
		Height:  vals[3],
	}, nil
}

func parseErr(line, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("annotation").
		Category(errors.CategoryLabelParsing).
		Context("line", line).
		Build()
}
