package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// landxmlPoint is one surface point as declared in the document: an
// arbitrary 1-based id and "northing easting elevation" text.
type landxmlPoint struct {
	id   uint64
	n    float32
	e    float32
	elev float32
}

// ParseLandXML extracts every Surface element from a LandXML document.
// Point ids are arbitrary and non-contiguous, so faces are resolved
// through an id→dense-index map. Source coordinates are stored as
// (northing, easting, elevation) and emitted as (easting, northing,
// elevation) = (x, y, z).
func ParseLandXML(data []byte) ([]*RawSurface, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var surfaces []*RawSurface
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Surface" {
			continue
		}

		surface, err := parseSurface(decoder, start)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, surface)
	}

	if len(surfaces) == 0 {
		return nil, fmt.Errorf("%w: document contains no surfaces", ErrMalformedGeometry)
	}
	return surfaces, nil
}

// parseSurface consumes one Surface element and resolves it into a dense,
// zero-based triangulation.
func parseSurface(decoder *xml.Decoder, start xml.StartElement) (*RawSurface, error) {
	name := "Untitled"
	for _, attr := range start.Attr {
		if attr.Name.Local == "name" && attr.Value != "" {
			name = attr.Value
		}
	}

	var points []landxmlPoint
	var faces [][3]uint64

	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: surface %q: %v", ErrMalformedGeometry, name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "P":
				point, err := parsePoint(decoder, el)
				if err != nil {
					return nil, fmt.Errorf("surface %q: %w", name, err)
				}
				points = append(points, point)
			case "F":
				face, err := parseFace(decoder, el)
				if err != nil {
					return nil, fmt.Errorf("surface %q: %w", name, err)
				}
				faces = append(faces, face)
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}

	// Dense index assignment in declaration order.
	indexByID := make(map[uint64]uint32, len(points))
	vertices := make([]float32, 0, len(points)*3)
	for _, p := range points {
		indexByID[p.id] = uint32(len(vertices) / 3)
		vertices = append(vertices, p.e, p.n, p.elev)
	}

	indices := make([]uint32, 0, len(faces)*3)
	for _, face := range faces {
		for _, id := range face {
			idx, ok := indexByID[id]
			if !ok {
				return nil, fmt.Errorf("%w: surface %q references unknown point id %d", ErrMalformedGeometry, name, id)
			}
			indices = append(indices, idx)
		}
	}

	return &RawSurface{Name: name, Vertices: vertices, Indices: indices}, nil
}

// parsePoint reads one P element: id attribute plus whitespace-separated
// "northing easting elevation" character data.
func parsePoint(decoder *xml.Decoder, start xml.StartElement) (landxmlPoint, error) {
	var point landxmlPoint

	hasID := false
	for _, attr := range start.Attr {
		if attr.Name.Local != "id" {
			continue
		}
		id, err := strconv.ParseUint(attr.Value, 10, 64)
		if err != nil {
			return point, fmt.Errorf("%w: bad point id %q", ErrMalformedGeometry, attr.Value)
		}
		point.id = id
		hasID = true
	}
	if !hasID {
		return point, fmt.Errorf("%w: point without id attribute", ErrMalformedGeometry)
	}

	text, err := elementText(decoder, start)
	if err != nil {
		return point, err
	}

	fields := strings.Fields(text)
	if len(fields) != 3 {
		return point, fmt.Errorf("%w: point %d has %d coordinates, expected 3", ErrMalformedGeometry, point.id, len(fields))
	}

	coords := make([]float32, 3)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return point, fmt.Errorf("%w: point %d coordinate %q: %v", ErrMalformedGeometry, point.id, field, err)
		}
		coords[i] = float32(v)
	}

	point.n, point.e, point.elev = coords[0], coords[1], coords[2]
	return point, nil
}

// parseFace reads one F element: three whitespace-separated point ids.
func parseFace(decoder *xml.Decoder, start xml.StartElement) ([3]uint64, error) {
	var face [3]uint64

	text, err := elementText(decoder, start)
	if err != nil {
		return face, err
	}

	fields := strings.Fields(text)
	if len(fields) != 3 {
		return face, fmt.Errorf("%w: face has %d point references, expected 3", ErrMalformedGeometry, len(fields))
	}

	for i, field := range fields {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return face, fmt.Errorf("%w: face reference %q: %v", ErrMalformedGeometry, field, err)
		}
		face[i] = id
	}
	return face, nil
}

// elementText collects the character data of an element up to its end tag.
func elementText(decoder *xml.Decoder, start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("%w: unterminated %s element: %v", ErrMalformedGeometry, start.Name.Local, err)
		}
		switch el := tok.(type) {
		case xml.CharData:
			sb.Write(el)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			return "", fmt.Errorf("%w: unexpected child element <%s> in <%s>", ErrMalformedGeometry, el.Name.Local, start.Name.Local)
		}
	}
}
