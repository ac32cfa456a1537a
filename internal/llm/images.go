package llm

import (
	"strings"
)

// dataImage is an inline base64 image split out of a data URL.
type dataImage struct {
	MediaType string
	Data      string
}

// parseDataURL splits a base64 data URL such as
// "data:image/png;base64,iVBOR..." into media type and payload.
func parseDataURL(src string) (dataImage, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return dataImage{}, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return dataImage{}, false
	}
	mediaType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" || !strings.HasPrefix(mediaType, "image/") {
		return dataImage{}, false
	}
	return dataImage{MediaType: mediaType, Data: payload}, true
}

// splitImages separates inline images from remote references.
func splitImages(srcs []string) (inline []dataImage, remote []string) {
	for _, src := range srcs {
		if img, ok := parseDataURL(src); ok {
			inline = append(inline, img)
			continue
		}
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			remote = append(remote, src)
		}
	}
	return inline, remote
}
