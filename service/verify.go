package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/glazed-darnut/VerifyBot/pkg/fetch"
	"github.com/glazed-darnut/VerifyBot/pkg/imaging"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// OCRScheduler is the slice of the worker pool the verifier needs.
type OCRScheduler interface {
	SubmitText(ctx context.Context, imagePath string) (string, error)
	SubmitDetect(ctx context.Context, imagePath string) (string, error)
}

// Verifier runs the screenshot pipeline: fetch, normalize, slice into bands,
// fan the bands out to the text pool, reassemble in band order and match the
// role's rule. One Verifier serves all concurrent requests; per-request state
// lives in a scratch directory removed on every exit path.
type Verifier struct {
	Pool         OCRScheduler
	Fetch        *fetch.Client
	WorkingWidth int
	BandHeight   int
	ScratchDir   string
}

func NewVerifier(pool OCRScheduler, fetchClient *fetch.Client, workingWidth, bandHeight int, scratchDir string) *Verifier {
	return &Verifier{
		Pool:         pool,
		Fetch:        fetchClient,
		WorkingWidth: workingWidth,
		BandHeight:   bandHeight,
		ScratchDir:   scratchDir,
	}
}

// Verify reports whether the screenshot at imageURL proves suppliedName per
// rule. An error means the verification could not run; it is distinct from a
// false verdict and must not be treated as "denied" by callers.
func (v *Verifier) Verify(ctx context.Context, imageURL, suppliedName string, rule model.VerificationRule) (bool, error) {
	reqID, _ := gonanoid.New()

	dir := filepath.Join(v.ScratchDir, "verify-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return false, fmt.Errorf("%w: %v", model.OcrFailedErr, err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "source"+imageExt(imageURL))
	if err := v.Fetch.Download(ctx, imageURL, src); err != nil {
		return false, fmt.Errorf("%w: %v", model.ImageFetchFailedErr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	scriptMatch := true
	if rule.ExpectedScript != "" {
		// script detection runs on the original image, not the bands
		g.Go(func() error {
			script, err := v.Pool.SubmitDetect(gctx, src)
			if err != nil {
				return err
			}
			scriptMatch = strings.EqualFold(script, rule.ExpectedScript)
			return nil
		})
	}

	normalized, err := imaging.Normalize(src, dir, v.WorkingWidth)
	if err != nil {
		_ = g.Wait()
		return false, fmt.Errorf("%w: %v", model.OcrFailedErr, err)
	}
	bands, err := imaging.Slice(normalized, v.BandHeight)
	// the resized intermediate is dead weight once the bands exist
	_ = os.Remove(normalized)
	if err != nil {
		_ = g.Wait()
		return false, fmt.Errorf("%w: %v", model.OcrFailedErr, err)
	}
	defer imaging.RemoveAll(bands)

	log.Debug("verify %v: %v band(s) for %v", reqID, len(bands), imageURL)

	// all bands fan out together; reassembly below restores band order no
	// matter which worker finishes first
	texts := make([]string, len(bands))
	for i := range bands {
		i := i
		band := bands[i]
		g.Go(func() error {
			text, err := v.Pool.SubmitText(gctx, band)
			_ = os.Remove(band)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("%w: %v", model.OcrFailedErr, err)
	}

	re, err := rule.Compile(suppliedName)
	if err != nil {
		return false, err
	}
	assembled := strings.Join(texts, " ")
	textMatch := re.MatchString(assembled)
	log.Info("verify %v: textMatch=%v scriptMatch=%v", reqID, textMatch, scriptMatch)
	return textMatch && scriptMatch, nil
}

func imageExt(imageURL string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(imageURL, "?", 2)[0]))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return ext
	}
	return ".png"
}
