package mjcf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl64"
)

// floats parses a whitespace separated list of exactly n numbers. An empty
// string yields def.
func floats(name, s string, n int, def []float64) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		out := make([]float64, n)
		copy(out, def)
		return out, nil
	}
	if len(fields) != n {
		return nil, fmt.Errorf("%w: %s=%q: want %d numbers, got %d", ErrAttr, name, s, n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrAttr, name, s, err)
		}
		out[i] = v
	}
	return out, nil
}

// floatsUpTo parses between 1 and n numbers, filling the rest from def.
func floatsUpTo(name, s string, n int, def []float64) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, n)
	copy(out, def)
	if len(fields) > n {
		return nil, fmt.Errorf("%w: %s=%q: want at most %d numbers", ErrAttr, name, s, n)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrAttr, name, s, err)
		}
		out[i] = v
	}
	return out, nil
}

func float(name, s string, def float64) (float64, error) {
	v, err := floats(name, s, 1, []float64{def})
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func vec3(name, s string, def mgl64.Vec3) (mgl64.Vec3, error) {
	v, err := floats(name, s, 3, def[:])
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func rgba(name, s string, def [4]float32) ([4]float32, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := floats(name, s, 4, nil)
	if err != nil {
		return def, err
	}
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}, nil
}

func rgb(name, s string, def [3]float32) ([3]float32, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := floats(name, s, 3, nil)
	if err != nil {
		return def, err
	}
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}, nil
}

func boolean(name, s string, def bool) (bool, error) {
	switch strings.TrimSpace(s) {
	case "":
		return def, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return def, fmt.Errorf("%w: %s=%q: want true or false", ErrAttr, name, s)
}

// frame carries the compiler settings needed to interpret orientations.
type frame struct {
	degrees  bool
	eulerSeq string
}

func (f frame) angle(v float64) float64 {
	if f.degrees {
		return v * math.Pi / 180
	}
	return v
}

// orientation converts whichever orientation attribute is present into a
// unit quaternion.
func (f frame) orientation(o xmlOrientation) (mgl64.Quat, error) {
	switch {
	case o.Quat != "":
		v, err := floats("quat", o.Quat, 4, nil)
		if err != nil {
			return mgl64.Quat{}, err
		}
		q := mgl64.Quat{W: v[0], V: mgl64.Vec3{v[1], v[2], v[3]}}
		if q.Len() == 0 {
			return mgl64.Quat{}, fmt.Errorf("%w: quat=%q is zero", ErrAttr, o.Quat)
		}
		return q.Normalize(), nil

	case o.AxisAngle != "":
		v, err := floats("axisangle", o.AxisAngle, 4, nil)
		if err != nil {
			return mgl64.Quat{}, err
		}
		axis := mgl64.Vec3{v[0], v[1], v[2]}
		if axis.Len() == 0 {
			return mgl64.Quat{}, fmt.Errorf("%w: axisangle=%q has zero axis", ErrAttr, o.AxisAngle)
		}
		return mgl64.QuatRotate(f.angle(v[3]), axis.Normalize()), nil

	case o.Euler != "":
		v, err := floats("euler", o.Euler, 3, nil)
		if err != nil {
			return mgl64.Quat{}, err
		}
		return f.euler(v)

	case o.ZAxis != "":
		z, err := vec3("zaxis", o.ZAxis, mgl64.Vec3{})
		if err != nil {
			return mgl64.Quat{}, err
		}
		if z.Len() == 0 {
			return mgl64.Quat{}, fmt.Errorf("%w: zaxis=%q is zero", ErrAttr, o.ZAxis)
		}
		return mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, z.Normalize()), nil
	}
	return mgl64.QuatIdent(), nil
}

// euler composes rotations in eulerSeq order. Lowercase axes rotate about the
// moving frame, uppercase about the fixed frame.
func (f frame) euler(v []float64) (mgl64.Quat, error) {
	seq := f.eulerSeq
	if seq == "" {
		seq = "xyz"
	}
	if len(seq) != 3 {
		return mgl64.Quat{}, fmt.Errorf("%w: eulerseq=%q", ErrAttr, seq)
	}
	q := mgl64.QuatIdent()
	for i, c := range seq {
		var axis mgl64.Vec3
		switch unicode.ToLower(c) {
		case 'x':
			axis = mgl64.Vec3{1, 0, 0}
		case 'y':
			axis = mgl64.Vec3{0, 1, 0}
		case 'z':
			axis = mgl64.Vec3{0, 0, 1}
		default:
			return mgl64.Quat{}, fmt.Errorf("%w: eulerseq=%q", ErrAttr, seq)
		}
		r := mgl64.QuatRotate(f.angle(v[i]), axis)
		if unicode.IsUpper(c) {
			q = r.Mul(q)
		} else {
			q = q.Mul(r)
		}
	}
	return q.Normalize(), nil
}
