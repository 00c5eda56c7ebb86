package grid

import (
	"context"
	"fmt"
	"os"
	"sync"

	"course-frames/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// InitVips starts libvips once. It is called by NewCompositor when the vips
// compositor is selected; ShutdownVips should be deferred by the caller.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route libvips messages through our logger at a matching threshold.
	var vipsLogLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
	case logging.LevelInfo:
		vipsLogLevel = vips.LogLevelWarning
	case logging.LevelWarn:
		vipsLogLevel = vips.LogLevelError
	default:
		vipsLogLevel = vips.LogLevelCritical
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Frames are small; one worker and a modest cache are plenty.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips if it was started.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Debug("libvips shutdown complete")
	}
}

func vipsReady() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// VipsCompositor joins frames with vips_arrayjoin, one image per row.
type VipsCompositor struct{}

func (VipsCompositor) Name() string { return CompositorVips }

// Compose implements Compositor.
func (VipsCompositor) Compose(ctx context.Context, frames []string, out string, quality int) error {
	if !vipsReady() {
		return fmt.Errorf("libvips not available")
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames to compose")
	}

	refs := make([]*vips.ImageRef, 0, len(frames))
	defer func() {
		for _, ref := range refs {
			ref.Close()
		}
	}()

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref, err := vips.LoadImageFromFile(f, vips.NewImportParams())
		if err != nil {
			return fmt.Errorf("vips failed to load frame: %w", err)
		}
		refs = append(refs, ref)
	}

	grid := refs[0]
	if len(refs) > 1 {
		if err := grid.ArrayJoin(refs[1:], 1); err != nil {
			return fmt.Errorf("vips join failed: %w", err)
		}
	}

	buf, _, err := grid.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		OptimizeCoding: true,
	})
	if err != nil {
		return fmt.Errorf("vips export failed: %w", err)
	}
	if err := os.WriteFile(out, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write grid %s: %w", out, err)
	}
	return nil
}
