package sniffer

import (
	"bytes"
	"errors"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeAVIF MediaType = "avif"
	TypeSVG  MediaType = "svg"
)

// sniffLen bounds how much of a payload is inspected.
const sniffLen = 512

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

// Ext is the file extension used for object keys.
func (r Result) Ext() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

type signature struct {
	result Result
	match  func(head []byte) bool
}

// Order matters: svg is textual and checked last.
var signatures = []signature{
	{Result{TypeJPEG, "image/jpeg"}, prefix("\xff\xd8\xff")},
	{Result{TypePNG, "image/png"}, prefix("\x89PNG\r\n\x1a\n")},
	{Result{TypeGIF, "image/gif"}, anyOf(prefix("GIF87a"), prefix("GIF89a"))},
	{Result{TypeWEBP, "image/webp"}, riffWebP},
	{Result{TypeAVIF, "image/avif"}, isoBrand("avif")},
	{Result{TypeSVG, "image/svg+xml"}, svgDocument},
}

// Detect identifies an avatar image by its leading bytes. Only the formats
// accepted as avatars are recognised.
func Detect(data []byte) (Result, error) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

func prefix(magic string) func([]byte) bool {
	return func(head []byte) bool {
		return bytes.HasPrefix(head, []byte(magic))
	}
}

func anyOf(matchers ...func([]byte) bool) func([]byte) bool {
	return func(head []byte) bool {
		for _, m := range matchers {
			if m(head) {
				return true
			}
		}
		return false
	}
}

func riffWebP(head []byte) bool {
	return len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP"
}

// isoBrand matches an ISO base media file whose ftyp box lists brand.
func isoBrand(brand string) func([]byte) bool {
	return func(head []byte) bool {
		if len(head) < 12 || string(head[4:8]) != "ftyp" {
			return false
		}
		return bytes.Contains(head[8:], []byte(brand))
	}
}

func svgDocument(head []byte) bool {
	doc := bytes.ToLower(bytes.TrimSpace(head))
	if bytes.HasPrefix(doc, []byte("<svg")) {
		return true
	}
	return bytes.HasPrefix(doc, []byte("<?xml")) && bytes.Contains(doc, []byte("<svg"))
}
