package catalog

// Attribute ranges, half-open [min, max).
const (
	MinPointCount  = 80000
	MaxPointCount  = 200000
	MinObjectCount = 3
	MaxObjectCount = 18

	// DefaultSize is the catalog size used when none is configured.
	DefaultSize = 100
)

// Generate produces n frames with uniformly drawn attributes. Draw order per
// frame is point count, object count, scene, weather, time of day,
// difficulty. n <= 0 yields an empty slice.
func Generate(n int, rng Rand) []Frame {
	if n <= 0 {
		return []Frame{}
	}
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			ID:          FrameID(i),
			PointCount:  MinPointCount + rng.IntN(MaxPointCount-MinPointCount),
			ObjectCount: MinObjectCount + rng.IntN(MaxObjectCount-MinObjectCount),
			Scene:       Scenes[rng.IntN(len(Scenes))],
			Weather:     Weathers[rng.IntN(len(Weathers))],
			TimeOfDay:   TimesOfDay[rng.IntN(len(TimesOfDay))],
			Difficulty:  Difficulties[rng.IntN(len(Difficulties))],
		}
	}
	return frames
}

// Catalog is a fixed, read-only sequence of frames.
type Catalog struct {
	frames []Frame
}

// New generates a catalog of n frames.
func New(n int, rng Rand) *Catalog {
	return &Catalog{frames: Generate(n, rng)}
}

// FromFrames wraps an existing frame slice. The slice is copied.
func FromFrames(frames []Frame) *Catalog {
	cp := make([]Frame, len(frames))
	copy(cp, frames)
	return &Catalog{frames: cp}
}

// Len returns the number of frames.
func (c *Catalog) Len() int { return len(c.frames) }

// At returns the frame at i, wrapping modulo the catalog size. It panics on
// an empty catalog.
func (c *Catalog) At(i int) Frame {
	n := len(c.frames)
	return c.frames[((i%n)+n)%n]
}

// Next returns the index after i, wrapping to 0 at the end.
func (c *Catalog) Next(i int) int {
	if len(c.frames) == 0 {
		return 0
	}
	return (i + 1) % len(c.frames)
}

// Frames returns a copy of the frames.
func (c *Catalog) Frames() []Frame {
	cp := make([]Frame, len(c.frames))
	copy(cp, c.frames)
	return cp
}
