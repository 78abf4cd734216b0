package jpeg

import "fmt"

// JPEG marker codes, the byte following a 0xFF prefix.
const (
	markerSOF0  byte = 0xC0 // Baseline DCT
	markerSOF1  byte = 0xC1 // Extended sequential DCT
	markerSOF2  byte = 0xC2 // Progressive DCT
	markerSOF3  byte = 0xC3 // Lossless sequential
	markerDHT   byte = 0xC4 // Define Huffman tables
	markerSOF5  byte = 0xC5 // Differential sequential
	markerSOF6  byte = 0xC6 // Differential progressive
	markerSOF7  byte = 0xC7 // Differential lossless
	markerJPG   byte = 0xC8 // Reserved
	markerSOF9  byte = 0xC9 // Arithmetic sequential
	markerSOF10 byte = 0xCA // Arithmetic progressive
	markerSOF11 byte = 0xCB // Arithmetic lossless
	markerDAC   byte = 0xCC // Define arithmetic conditioning
	markerSOF13 byte = 0xCD // Differential arithmetic sequential
	markerSOF14 byte = 0xCE // Differential arithmetic progressive
	markerSOF15 byte = 0xCF // Differential arithmetic lossless
	markerRST0  byte = 0xD0 // Restart 0
	markerRST7  byte = 0xD7 // Restart 7
	markerSOI   byte = 0xD8 // Start of image
	markerEOI   byte = 0xD9 // End of image
	markerSOS   byte = 0xDA // Start of scan
	markerDQT   byte = 0xDB // Define quantization tables
	markerDNL   byte = 0xDC // Define number of lines
	markerDRI   byte = 0xDD // Define restart interval
	markerDHP   byte = 0xDE // Define hierarchical progression
	markerEXP   byte = 0xDF // Expand reference components
	markerAPP0  byte = 0xE0 // Application segment 0 (JFIF)
	markerAPP1  byte = 0xE1 // Application segment 1 (EXIF/XMP)
	markerAPP2  byte = 0xE2 // Application segment 2 (ICC)
	markerAPP13 byte = 0xED // Application segment 13 (Photoshop/IPTC)
	markerAPP14 byte = 0xEE // Application segment 14 (Adobe)
	markerAPP15 byte = 0xEF // Application segment 15
	markerCOM   byte = 0xFE // Comment
)

// isRST reports whether m is one of the eight restart markers.
func isRST(m byte) bool {
	return m >= markerRST0 && m <= markerRST7
}

// isAPP reports whether m is an application data marker.
func isAPP(m byte) bool {
	return m >= markerAPP0 && m <= markerAPP15
}

// hasSegment reports whether marker m is followed by a length-prefixed
// segment. SOI, EOI, RSTn and TEM are bare markers.
func hasSegment(m byte) bool {
	if m == markerSOI || m == markerEOI || m == 0x01 || isRST(m) {
		return false
	}
	return true
}

func markerName(m byte) string {
	switch m {
	case markerSOI:
		return "SOI"
	case markerEOI:
		return "EOI"
	case markerSOS:
		return "SOS"
	case markerDHT:
		return "DHT"
	case markerDQT:
		return "DQT"
	case markerDRI:
		return "DRI"
	case markerCOM:
		return "COM"
	case markerDNL:
		return "DNL"
	case markerSOF0:
		return "SOF0"
	case markerSOF1:
		return "SOF1"
	case markerSOF2:
		return "SOF2"
	}
	if isRST(m) {
		return fmt.Sprintf("RST%d", m-markerRST0)
	}
	if isAPP(m) {
		return fmt.Sprintf("APP%d", m-markerAPP0)
	}
	return fmt.Sprintf("0xFF%02X", m)
}
