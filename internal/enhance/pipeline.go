package enhance

import (
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/mls-photo-enhancer/internal/imaging"
)

// Stage is one pixel transform of a pipeline.
//
// Apply receives a buffer owned by the pipeline and returns either that same
// buffer or a new one; it never reports errors because out-of-range values
// are clamped.
type Stage interface {
	Name() string
	Apply(img *image.RGBA) *image.RGBA
}

// EncodedImage is the terminal output of one pipeline run.
type EncodedImage struct {
	// Index is the 1-based position of the source in its batch (0 outside a batch).
	Index int `json:"index"`

	// Name is the archive entry name, e.g. "01.jpg".
	Name string `json:"name"`

	// Source is the upload name the image came from.
	Source string `json:"source,omitempty"`

	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"-"`
}

// Enhancer runs the "safe" and "pro" pipelines with one fixed Config.
//
// Construction validates the config and precomputes the gamma table, so an
// Enhancer can be shared by every worker of a batch.
type Enhancer struct {
	cfg       Config
	decoder   imaging.Decoder
	pipelines map[Variant][]Stage
	logger    *zap.Logger
}

// Option customizes an Enhancer.
type Option func(*Enhancer)

// WithLogger sets the logger used for per-stage debug timings.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Enhancer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDecoder replaces the decoder used by EnhanceImage.
func WithDecoder(d imaging.Decoder) Option {
	return func(e *Enhancer) { e.decoder = d }
}

// New validates cfg and builds both pipelines.
func New(cfg Config, opts ...Option) (*Enhancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resizer := Resizer{MaxSize: cfg.MaxSize, Filter: cfg.Filter}
	e := &Enhancer{
		cfg:    cfg,
		logger: zap.NewNop(),
		pipelines: map[Variant][]Stage{
			VariantSafe: {
				ToneAdjuster{
					Cutoff:     cfg.Cutoff,
					Color:      cfg.Color,
					Contrast:   cfg.Contrast,
					Brightness: cfg.Brightness,
					Sharpness:  cfg.Sharpness,
				},
				resizer,
			},
			VariantPro: {
				LocalContrast{ClipLimit: cfg.ClipLimit, TileRows: cfg.TileRows, TileCols: cfg.TileCols},
				GammaCorrector{Table: NewGammaTable(cfg.Gamma)},
				resizer,
			},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration the Enhancer was built with.
func (e *Enhancer) Config() Config { return e.cfg }

// Stages returns the ordered stages of a variant. An empty variant selects
// the configured default.
func (e *Enhancer) Stages(v Variant) ([]Stage, error) {
	if v == "" {
		v = e.cfg.Variant
	}
	stages, ok := e.pipelines[v]
	if !ok {
		return nil, &ConfigurationError{Field: "Variant", Value: string(v), Reason: "must be one of safe, pro"}
	}
	return stages, nil
}

// Enhance runs a variant over img and returns the enhanced image.
//
// img is copied into an opaque RGB buffer first and never modified. The same
// input, variant and Config always produce the same pixels.
func (e *Enhancer) Enhance(img image.Image, v Variant) (*image.RGBA, error) {
	stages, err := e.Stages(v)
	if err != nil {
		return nil, err
	}

	buf, err := imaging.Normalize(img)
	if err != nil {
		return nil, err
	}

	for _, stage := range stages {
		start := time.Now()
		buf = stage.Apply(buf)
		e.logger.Debug("stage complete",
			zap.String("stage", stage.Name()),
			zap.Int("width", buf.Rect.Dx()),
			zap.Int("height", buf.Rect.Dy()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return buf, nil
}

// EnhanceDecoded enhances an already decoded image and encodes it as JPEG at
// the configured quality.
func (e *Enhancer) EnhanceDecoded(img image.Image, v Variant) (*EncodedImage, error) {
	out, err := e.Enhance(img, v)
	if err != nil {
		return nil, err
	}

	data, err := imaging.EncodeJPEG(out, e.cfg.Quality)
	if err != nil {
		return nil, err
	}

	return &EncodedImage{
		Width:  out.Rect.Dx(),
		Height: out.Rect.Dy(),
		Data:   data,
	}, nil
}

// EnhanceImage decodes raw upload bytes, enhances them and encodes JPEG.
//
// Decode failures come back as *imaging.DecodeError or
// *imaging.UnsupportedFormatError and concern this image only.
func (e *Enhancer) EnhanceImage(data []byte, name string, v Variant) (*EncodedImage, error) {
	img, format, err := e.decoder.Decode(data, name)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("decoded upload",
		zap.String("source", name),
		zap.String("format", format),
		zap.Int("bytes", len(data)),
	)

	enc, err := e.EnhanceDecoded(img, v)
	if err != nil {
		return nil, fmt.Errorf("failed to enhance %s: %w", name, err)
	}
	enc.Source = name
	return enc, nil
}
