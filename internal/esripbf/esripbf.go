// Package esripbf decodes the Esri FeatureCollection protocol-buffer
// payload returned by FeatureServer query endpoints for f=pbf requests.
//
// The payload is walked directly with the protobuf wire package rather than
// generated message types: the schema is small, only a subset of it is
// consumed, and unknown fields must be skipped without error as servers
// extend the format.
package esripbf

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// GeometryKind mirrors the esriGeometryType enum carried in the payload.
type GeometryKind int32

const (
	KindPoint GeometryKind = iota
	KindMultipoint
	KindPolyline
	KindPolygon
)

// Field numbers of the FeatureCollectionPBuffer schema, kept in one place.
const (
	fcVersion     = 1
	fcQueryResult = 2

	qrFeatureResult = 1

	frObjectIDFieldName     = 1
	frGeometryType          = 7
	frSpatialReference      = 8
	frExceededTransferLimit = 9
	frTransform             = 12
	frFields                = 13
	frFeatures              = 15

	fieldName = 1
	fieldType = 2

	valueString = 1
	valueFloat  = 2
	valueDouble = 3
	valueSint   = 4
	valueUint   = 5
	valueInt64  = 6
	valueUint64 = 7
	valueSint64 = 8
	valueBool   = 9

	featAttributes = 1
	featGeometry   = 2

	geomLengths = 2
	geomCoords  = 3

	xfOrigin    = 1
	xfScale     = 2
	xfTranslate = 3

	scaleX = 1
	scaleY = 2

	translateX = 1
	translateY = 2
)

// originUpperLeft is the quantization origin the provider always requests;
// Y deltas grow southward and are subtracted from the translate.
const originUpperLeft = 0

// Feature is one decoded feature: a geometry in the payload's output
// spatial reference plus its attribute mapping.
type Feature struct {
	Geometry   geom.Geometry
	Properties map[string]interface{}
}

// FeatureCollection is the decoded form of one query response page.
type FeatureCollection struct {
	ObjectIDField         string
	GeometryType          GeometryKind
	ExceededTransferLimit bool
	Features              []Feature
}

type transform struct {
	originLowerLeft bool
	scaleX, scaleY  float64
	translateX      float64
	translateY      float64
	present         bool
}

// identity transform for servers that answer without quantization.
var identity = transform{scaleX: 1, scaleY: 1}

// Decode parses a FeatureCollection payload. Unknown fields are skipped.
func Decode(buf []byte) (*FeatureCollection, error) {
	if len(buf) == 0 {
		return nil, errors.New("esripbf: empty payload")
	}

	var result []byte
	if err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == fcQueryResult && typ == protowire.BytesType {
			result = v
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "esripbf: reading envelope")
	}
	if result == nil {
		return nil, errors.New("esripbf: payload has no query result")
	}

	var featureResult []byte
	if err := walk(result, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == qrFeatureResult && typ == protowire.BytesType {
			featureResult = v
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "esripbf: reading query result")
	}
	if featureResult == nil {
		return nil, errors.New("esripbf: query result carries no feature result")
	}

	return decodeFeatureResult(featureResult)
}

func decodeFeatureResult(buf []byte) (*FeatureCollection, error) {
	fc := &FeatureCollection{}
	tr := identity

	var fieldNames []string
	var rawFeatures [][]byte

	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case frObjectIDFieldName:
			fc.ObjectIDField = string(v)
		case frGeometryType:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			fc.GeometryType = GeometryKind(n)
		case frExceededTransferLimit:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			fc.ExceededTransferLimit = n != 0
		case frTransform:
			t, err := decodeTransform(v)
			if err != nil {
				return err
			}
			tr = t
		case frFields:
			name, err := decodeFieldName(v)
			if err != nil {
				return err
			}
			fieldNames = append(fieldNames, name)
		case frFeatures:
			rawFeatures = append(rawFeatures, v)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "esripbf: reading feature result")
	}

	fc.Features = make([]Feature, 0, len(rawFeatures))
	for i, raw := range rawFeatures {
		f, err := decodeFeature(raw, fieldNames, fc.GeometryType, tr)
		if err != nil {
			return nil, errors.Wrapf(err, "esripbf: feature %d", i)
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}

func decodeTransform(buf []byte) (transform, error) {
	tr := transform{scaleX: 1, scaleY: 1, present: true}
	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case xfOrigin:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			tr.originLowerLeft = n != originUpperLeft
		case xfScale:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				f, err := asDouble(typ, v)
				if err != nil {
					return err
				}
				switch num {
				case scaleX:
					tr.scaleX = f
				case scaleY:
					tr.scaleY = f
				}
				return nil
			})
		case xfTranslate:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte) error {
				f, err := asDouble(typ, v)
				if err != nil {
					return err
				}
				switch num {
				case translateX:
					tr.translateX = f
				case translateY:
					tr.translateY = f
				}
				return nil
			})
		}
		return nil
	})
	return tr, err
}

func decodeFieldName(buf []byte) (string, error) {
	var name string
	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == fieldName && typ == protowire.BytesType {
			name = string(v)
		}
		return nil
	})
	return name, err
}

func decodeFeature(buf []byte, fieldNames []string, kind GeometryKind, tr transform) (Feature, error) {
	f := Feature{Properties: map[string]interface{}{}}

	attrIdx := 0
	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case featAttributes:
			val, err := decodeValue(v)
			if err != nil {
				return err
			}
			if attrIdx < len(fieldNames) && val != nil {
				f.Properties[fieldNames[attrIdx]] = val
			}
			attrIdx++
		case featGeometry:
			g, err := decodeGeometry(v, kind, tr)
			if err != nil {
				return err
			}
			f.Geometry = g
		}
		return nil
	})
	return f, err
}

func decodeValue(buf []byte) (interface{}, error) {
	var out interface{}
	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case valueString:
			out = string(v)
		case valueFloat:
			if typ != protowire.Fixed32Type {
				return fmt.Errorf("value field %d has wire type %d", num, typ)
			}
			bits, _ := protowire.ConsumeFixed32(v)
			out = float64(math.Float32frombits(bits))
		case valueDouble:
			f, err := asDouble(typ, v)
			if err != nil {
				return err
			}
			out = f
		case valueSint:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			out = protowire.DecodeZigZag(n)
		case valueUint, valueUint64:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			out = int64(n)
		case valueInt64:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			out = int64(n)
		case valueSint64:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			out = protowire.DecodeZigZag(n)
		case valueBool:
			n, err := asVarint(typ, v)
			if err != nil {
				return err
			}
			out = n != 0
		}
		return nil
	})
	return out, err
}

// decodeGeometry turns the quantized delta-encoded coordinate stream into a
// geometry in the payload's output spatial reference.
func decodeGeometry(buf []byte, kind GeometryKind, tr transform) (geom.Geometry, error) {
	var lengths []uint64
	var coords []int64

	err := walk(buf, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case geomLengths:
			ls, err := packedVarints(typ, v)
			if err != nil {
				return err
			}
			lengths = append(lengths, ls...)
		case geomCoords:
			cs, err := packedVarints(typ, v)
			if err != nil {
				return err
			}
			for _, c := range cs {
				coords = append(coords, protowire.DecodeZigZag(c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, nil
	}

	switch kind {
	case KindPoint:
		if len(coords) < 2 {
			return nil, fmt.Errorf("point geometry with %d coords", len(coords))
		}
		return geom.Point(tr.point(coords[0], coords[1])), nil

	case KindMultipoint:
		pts := tr.path(coords, len(coords)/2)
		return geom.MultiPoint(pts), nil

	case KindPolyline:
		paths, err := parts(coords, lengths, tr)
		if err != nil {
			return nil, err
		}
		if len(paths) == 1 {
			return geom.LineString(paths[0]), nil
		}
		return geom.MultiLineString(paths), nil

	case KindPolygon:
		rings, err := parts(coords, lengths, tr)
		if err != nil {
			return nil, err
		}
		return assemblePolygons(rings), nil
	}
	return nil, fmt.Errorf("unknown geometry kind %d", kind)
}

// parts splits the coordinate stream into per-part point lists. Deltas are
// accumulated within each part only.
func parts(coords []int64, lengths []uint64, tr transform) ([][][2]float64, error) {
	if len(lengths) == 0 {
		lengths = []uint64{uint64(len(coords) / 2)}
	}

	out := make([][][2]float64, 0, len(lengths))
	offset := 0
	for _, n := range lengths {
		need := int(n) * 2
		if offset+need > len(coords) {
			return nil, fmt.Errorf("geometry lengths exceed coordinate stream (%d > %d)", offset+need, len(coords))
		}
		out = append(out, tr.path(coords[offset:offset+need], int(n)))
		offset += need
	}
	return out, nil
}

// path decodes n delta-encoded coordinate pairs.
func (tr transform) path(coords []int64, n int) [][2]float64 {
	pts := make([][2]float64, 0, n)
	var ix, iy int64
	for i := 0; i < n; i++ {
		ix += coords[2*i]
		iy += coords[2*i+1]
		pts = append(pts, tr.point(ix, iy))
	}
	return pts
}

func (tr transform) point(ix, iy int64) [2]float64 {
	x := tr.translateX + float64(ix)*tr.scaleX
	var y float64
	if tr.originLowerLeft {
		y = tr.translateY + float64(iy)*tr.scaleY
	} else {
		y = tr.translateY - float64(iy)*tr.scaleY
	}
	return [2]float64{x, y}
}

// walk iterates one message's fields. For bytes fields v is the field
// payload; for scalar fields it is the raw encoded value.
func walk(buf []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return protowire.ParseError(n)
		}
		buf = buf[n:]

		switch typ {
		case protowire.VarintType:
			_, n = protowire.ConsumeVarint(buf)
		case protowire.Fixed32Type:
			_, n = protowire.ConsumeFixed32(buf)
		case protowire.Fixed64Type:
			_, n = protowire.ConsumeFixed64(buf)
		case protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(buf)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, typ, v); err != nil {
				return err
			}
			buf = buf[n:]
			continue
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		if err := fn(num, typ, buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func asVarint(typ protowire.Type, v []byte) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("expected varint, got wire type %d", typ)
	}
	n, m := protowire.ConsumeVarint(v)
	if m < 0 {
		return 0, protowire.ParseError(m)
	}
	return n, nil
}

func asDouble(typ protowire.Type, v []byte) (float64, error) {
	if typ != protowire.Fixed64Type {
		return 0, fmt.Errorf("expected double, got wire type %d", typ)
	}
	bits, m := protowire.ConsumeFixed64(v)
	if m < 0 {
		return 0, protowire.ParseError(m)
	}
	return math.Float64frombits(bits), nil
}

// packedVarints accepts both packed and unpacked encodings of a repeated
// varint field.
func packedVarints(typ protowire.Type, v []byte) ([]uint64, error) {
	switch typ {
	case protowire.VarintType:
		n, m := protowire.ConsumeVarint(v)
		if m < 0 {
			return nil, protowire.ParseError(m)
		}
		return []uint64{n}, nil
	case protowire.BytesType:
		var out []uint64
		for len(v) > 0 {
			n, m := protowire.ConsumeVarint(v)
			if m < 0 {
				return nil, protowire.ParseError(m)
			}
			out = append(out, n)
			v = v[m:]
		}
		return out, nil
	}
	return nil, fmt.Errorf("repeated varint field has wire type %d", typ)
}
