package assets

import (
	"context"
	"image"
	"image/draw"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
)

// Loader fetches and decodes background images in parallel. Images keep their natural
// size unless CoverFit is set, in which case each is scaled and cropped to Width×Height.
type Loader struct {
	Fetcher  Fetcher
	Timeout  time.Duration
	CoverFit bool
	Width    int
	Height   int
	Log      *logger.Logger
}

// Result is the outcome of one Load call. Images keeps query order with failures
// skipped; every failure is an ASSET_LOAD_FAILURE.
type Result struct {
	Images   []image.Image
	Failures []error
}

// Load never fails because of an individual asset. It only returns an error when ctx
// itself is done.
func (l *Loader) Load(ctx context.Context, queries []string) (Result, error) {
	log := l.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithComponent("assets")

	if l.Fetcher == nil || len(queries) == 0 {
		return Result{}, ctx.Err()
	}

	slots := make([]image.Image, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			start := time.Now()
			img, err := l.loadOne(gctx, q)
			if err != nil {
				errs[i] = err
				log.Warn("asset load failed", "query", q, "error", err)
				return nil
			}
			slots[i] = img
			log.Debug("asset loaded", "query", q, "elapsed", time.Since(start))
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeCanceled, "assets.Load", "loading canceled")
	}

	var res Result
	for i := range queries {
		if slots[i] != nil {
			res.Images = append(res.Images, slots[i])
		} else if errs[i] != nil {
			res.Failures = append(res.Failures, errs[i])
		}
	}
	return res, nil
}

func (l *Loader) loadOne(ctx context.Context, query string) (image.Image, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	data, err := l.Fetcher.Fetch(ctx, query)
	if err != nil {
		if errors.IsCode(err, errors.CodeAssetLoadFailure) {
			return nil, err
		}
		return nil, errors.AssetLoadFailure(query, err)
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, errors.AssetLoadFailure(query, err)
	}
	if l.CoverFit && l.Width > 0 && l.Height > 0 {
		return CoverFit(img, l.Width, l.Height), nil
	}
	return toRGBA(img), nil
}

// toRGBA converts once at natural size so per-frame transforms read packed pixels.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
