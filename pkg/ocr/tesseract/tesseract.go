// Package tesseract provides the gosseract-backed text engine and a
// tesseract-binary OSD detector for the ocr pools.
package tesseract

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/glazed-darnut/VerifyBot/pkg/ocr"
	"github.com/otiai10/gosseract/v2"
)

// Engine wraps one warm gosseract client. A pool worker owns it exclusively,
// so no locking is needed here.
type Engine struct {
	client *gosseract.Client
}

func NewEngine(lang string) (ocr.TextEngine, error) {
	c := gosseract.NewClient()
	if err := c.SetLanguage(lang); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load language %v: %w", lang, err)
	}
	return &Engine{client: c}, nil
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if err := e.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}

// Detector shells out to the tesseract binary in OSD mode (--psm 0), because
// gosseract does not expose orientation/script results.
type Detector struct {
	binary string
}

func NewDetector() (ocr.ScriptDetector, error) {
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found: %w", err)
	}
	return &Detector{binary: bin}, nil
}

func (d *Detector) DetectScript(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, d.binary, imagePath, "stdout", "--psm", "0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("osd: %w: %s", err, strings.TrimSpace(string(out)))
	}
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "Script:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Script:")), nil
		}
	}
	return "", fmt.Errorf("osd: no script line in output")
}

func (d *Detector) Close() error {
	return nil
}
