package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	cellW = 8
	cellH = 16
)

// Recorder collects canvas frames for a GIF animation.
type Recorder struct {
	frames []*image.Paletted
	// Delay between frames in hundredths of a second.
	Delay int
}

func NewRecorder() *Recorder {
	return &Recorder{Delay: 2}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture rasterises every lit braille dot as a block of pixels.
func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(
		image.Rect(0, 0, c.Width*cellW, c.Height*cellH),
		color.Palette{color.Black, color.White},
	)
	dotW, dotH := cellW/2, cellH/4
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Save writes the animation to path. Nothing is written without frames.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.Delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
