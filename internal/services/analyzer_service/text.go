package analyzer_service

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const minPrintableRatio = 0.7

type textEncoding struct {
	name   string
	decode func([]byte) (string, bool)
}

// Tried in order; the first decoding that also looks like text wins.
var textEncodings = []textEncoding{
	{"utf-8", decodeUTF8},
	{"latin-1", decodeCharmap(charmap.ISO8859_1)},
	{"cp1252", decodeCharmap(charmap.Windows1252)},
	{"iso-8859-1", decodeCharmap(charmap.ISO8859_1)},
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

func decodeUTF8(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		out, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

func looksLikeText(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsRune(s, 0) {
		return false
	}

	total, printable := 0, 0
	for _, r := range s {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable)/float64(total) >= minPrintableRatio
}

// decodeText returns the content and the name of the encoding that produced
// it, or ok=false when no encoding yields plausible text.
func decodeText(data []byte) (text string, encoding string, ok bool) {
	for _, enc := range textEncodings {
		s, decoded := enc.decode(data)
		if decoded && looksLikeText(s) {
			return s, enc.name, true
		}
	}
	return "", "", false
}
