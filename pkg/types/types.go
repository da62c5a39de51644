package types

// BoundingBox is a pixel-space rectangle with X1 < X2 and Y1 < Y2.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Valid reports whether the box spans a positive area.
func (b BoundingBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Detection is a scored bounding box as produced by an object detector,
// in pixel coordinates of the analyzed image.
type Detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// Box truncates the detection's float coordinates to an integer BoundingBox.
func (d Detection) Box() BoundingBox {
	return BoundingBox{
		X1: int(d.X1),
		Y1: int(d.Y1),
		X2: int(d.X2),
		Y2: int(d.Y2),
	}
}

// Area returns the detection area in square pixels.
func (d Detection) Area() float64 {
	return (d.X2 - d.X1) * (d.Y2 - d.Y1)
}

// GPS is a WGS84 coordinate pair. Pointer fields distinguish missing
// request values from a legitimate zero coordinate.
type GPS struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// IdentifyRequest is the body of POST /identify/. Direction may arrive as
// a JSON string or number; the server parses it into a bearing.
type IdentifyRequest struct {
	Direction any    `json:"direction"`
	GPS       *GPS   `json:"gps"`
	ImageB64  string `json:"image_base64"`
}

// IdentifyResponse is the success body of POST /identify/. LocationInfo is
// null, never absent, when the model answer could not be parsed.
type IdentifyResponse struct {
	Success      bool    `json:"success"`
	Direction    any     `json:"direction"`
	GPS          *GPS    `json:"gps"`
	LocationInfo *string `json:"location_info"`
	LabeledImage string  `json:"labeled_image"`
	Model        string  `json:"model"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
