// Package annotation holds the recognized-text model the field locators work on:
// annotations (text plus bounding box), the pages that own them and the matches
// produced by the locators.
package annotation

import (
	"strings"
)

// Sentinel is the coordinate used for "not found" boxes and centers.
const Sentinel = -1.0

// BBox is (x_min, y_min, x_max, y_max) in page image pixels.
type BBox [4]float64

func (b BBox) XMin() float64 { return b[0] }
func (b BBox) YMin() float64 { return b[1] }
func (b BBox) XMax() float64 { return b[2] }
func (b BBox) YMax() float64 { return b[3] }

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{(b[0] + b[2]) / 2, (b[1] + b[3]) / 2}
}

// ContainsY reports whether y lies in the closed vertical band [y_min, y_max].
func (b BBox) ContainsY(y float64) bool {
	return b[1] <= y && y <= b[3]
}

// Point is an (x, y) coordinate.
type Point [2]float64

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }

var (
	sentinelBBox  = BBox{Sentinel, Sentinel, Sentinel, Sentinel}
	sentinelPoint = Point{Sentinel, Sentinel}
)

// Annotation is one recognized text fragment. The zero value is not meaningful;
// use New or Empty.
type Annotation struct {
	text   string
	bbox   BBox
	center Point
}

// New builds an annotation and derives its center from bbox.
func New(text string, bbox BBox) Annotation {
	return Annotation{text: text, bbox: bbox, center: bbox.Center()}
}

// Empty is the "not found" annotation: no text, sentinel box and center.
func Empty() Annotation {
	return Annotation{bbox: sentinelBBox, center: sentinelPoint}
}

func (a Annotation) Text() string  { return a.text }
func (a Annotation) BBox() BBox    { return a.bbox }
func (a Annotation) Center() Point { return a.center }

// IsEmpty reports whether a carries the sentinel geometry.
func (a Annotation) IsEmpty() bool {
	return a.bbox == sentinelBBox && a.text == ""
}

// NormalizeText removes every ASCII space, keeping other whitespace intact.
func NormalizeText(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
