package video

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// resizeCover scales src bytes to exactly width x height, cropping the
// centered excess so the subject fills the frame, and re-encodes as JPEG.
// Providers with fixed pixel geometries reject images of any other size.
func resizeCover(src []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode reference image: %w", err)
	}

	crop := coverCrop(img.Bounds(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode reference image: %w", err)
	}
	return buf.Bytes(), nil
}

// coverCrop returns the largest centered sub-rectangle of bounds with the
// same aspect ratio as width:height.
func coverCrop(bounds image.Rectangle, width, height int) image.Rectangle {
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return bounds
	}

	// Compare aspect ratios via cross-multiplication to stay in integers.
	if srcW*height > width*srcH {
		// Source is wider than the target: crop left and right.
		cropW := srcH * width / height
		x0 := bounds.Min.X + (srcW-cropW)/2
		return image.Rect(x0, bounds.Min.Y, x0+cropW, bounds.Max.Y)
	}
	// Source is taller than the target: crop top and bottom.
	cropH := srcW * height / width
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+cropH)
}
