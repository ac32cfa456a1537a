package window

import "github.com/alexanderramin/jupytutor/internal/notebook"

const (
	DefaultMaxGoBack = 10
	DefaultMaxImages = 5
)

// GatherImages walks backward from activeIndex over at most maxGoBack cells
// collecting image sources, nearest first. Code cells with images contribute
// and the walk continues; the first non-code cell with images contributes
// and ends the walk, since it marks the start of the current exercise. The
// result is truncated to maxImages.
func GatherImages(cells []notebook.Cell, activeIndex, maxGoBack, maxImages int) []string {
	images := []string{}
	if maxImages <= 0 {
		return images
	}

	for i := activeIndex; i > activeIndex-maxGoBack && i >= 0; i-- {
		if i >= len(cells) {
			continue
		}
		c := cells[i]
		if len(c.ImageSources) == 0 {
			continue
		}
		images = append(images, c.ImageSources...)
		if c.Kind != notebook.KindCode {
			break
		}
	}

	if len(images) > maxImages {
		images = images[:maxImages]
	}
	return images
}
