// Package jpeg implements a pure Go JPEG (ITU-T T.81) decoder.
//
// This package decodes baseline (sequential DCT) and progressive JPEG
// streams, including restart markers, multi-scan baseline images and
// 4-component Adobe CMYK/YCCK files. Arithmetic-coded and lossless
// variants are recognized but not decoded.
//
// Decoding:
//
//	img, err := jpeg.Decode(reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Decoding into a flat pixel buffer with explicit options:
//
//	px, err := jpeg.DecodePixels(reader, &jpeg.DecodeOptions{
//	    OutColorspace: jpeg.ColorSpaceRGBA,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = px.Data // len = px.Width * px.Height * 4
//
// The package registers itself with the image package for automatic
// format detection:
//
//	import _ "github.com/ajroetker/go-jpeg"
//	img, _, err := image.Decode(reader)
package jpeg
