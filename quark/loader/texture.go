package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"path"

	_ "github.com/ftrvxmtrx/tga"

	"quarkview/quark/mjcf"
	"quarkview/quark/physics"
	"quarkview/quark/vfs"
)

// ErrNoTextureData is returned for a texture with neither a file nor a
// builtin pattern.
var ErrNoTextureData = errors.New("loader: texture has no data")

// At most this many pixels are sampled per axis when averaging.
const meanSamples = 64

// textureMean returns the mean RGB of a texture in 0..1. Builtin patterns are
// averaged analytically; files are decoded from the VFS relative to dir.
func textureMean(fsys *vfs.FS, dir string, t physics.Texture) ([3]float32, error) {
	if t.File == "" {
		switch t.Builtin {
		case "checker", "gradient":
			return [3]float32{
				(t.RGB1[0] + t.RGB2[0]) / 2,
				(t.RGB1[1] + t.RGB2[1]) / 2,
				(t.RGB1[2] + t.RGB2[2]) / 2,
			}, nil
		case "flat":
			return t.RGB1, nil
		}
		return [3]float32{}, ErrNoTextureData
	}

	p := t.File
	if !path.IsAbs(p) {
		p = path.Join(dir, p)
	}
	data, err := fsys.ReadFile(p)
	if err != nil {
		return [3]float32{}, fmt.Errorf("loader: read texture %s: %w", p, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return [3]float32{}, fmt.Errorf("loader: decode texture %s: %w", p, err)
	}
	return imageMean(img), nil
}

func imageMean(img image.Image) [3]float32 {
	b := img.Bounds()
	if b.Empty() {
		return [3]float32{}
	}
	stepX := max(1, b.Dx()/meanSamples)
	stepY := max(1, b.Dy()/meanSamples)

	var r, g, bl float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r += float64(c.R)
			g += float64(c.G)
			bl += float64(c.B)
			n++
		}
	}
	k := 1 / (255 * float64(n))
	return [3]float32{float32(r * k), float32(g * k), float32(bl * k)}
}

// AssetFiles lists the texture files a scene document refers to, relative to
// the document. Parse errors yield nil; LoadScene reports them.
func AssetFiles(doc []byte) []string {
	m, err := mjcf.Parse(doc)
	if err != nil {
		return nil
	}
	var files []string
	seen := map[string]bool{}
	for _, t := range m.Textures {
		if t.File == "" || seen[t.File] {
			continue
		}
		seen[t.File] = true
		files = append(files, t.File)
	}
	return files
}
