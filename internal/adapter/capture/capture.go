// Package capture obtains verification evidence from a camera, an uploaded
// file or the manual entry form.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Placeholder frame size, matching a 4:3 station preview.
const (
	placeholderWidth  = 640
	placeholderHeight = 480
)

var placeholderColor = color.NRGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}

type blobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Adapter turns camera frames and uploads into stored image previews.
type Adapter struct {
	camera    Camera
	blobs     blobStore
	maxUpload int64
	log       *slog.Logger
}

// New creates an Adapter. A nil camera behaves like NoCamera.
func New(log *slog.Logger, camera Camera, blobs blobStore, maxUploadBytes int64) *Adapter {
	if camera == nil {
		camera = NoCamera{}
	}
	return &Adapter{
		camera:    camera,
		blobs:     blobs,
		maxUpload: maxUploadBytes,
		log:       log.With("adapter", "capture"),
	}
}

// BeginCameraCapture opens the camera. When the camera is missing or refuses
// access the session is simulated instead; only a cancelled ctx is an error.
func (a *Adapter) BeginCameraCapture(ctx context.Context) (*CameraSession, error) {
	stream, err := a.camera.Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.log.WarnContext(ctx, "camera unavailable, simulating capture",
			slog.String("error", err.Error()),
		)
		return &CameraSession{reason: err}, nil
	}
	return &CameraSession{stream: stream}, nil
}

// CaptureFromStream snapshots one frame and stores it. The stream is released
// on every path. A snapshot failure on a granted stream is treated like an
// unavailable camera and yields the placeholder frame.
func (a *Adapter) CaptureFromStream(ctx context.Context, cs *CameraSession) (domain.ImagePreview, error) {
	defer func() {
		if err := cs.Release(); err != nil {
			a.log.WarnContext(ctx, "release camera stream", slog.String("error", err.Error()))
		}
	}()

	if !cs.Simulated() {
		frame, err := cs.stream.Snapshot(ctx)
		if err == nil {
			return a.store(ctx, frame, ".jpg", false)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ImagePreview{}, ctxErr
		}
		a.log.WarnContext(ctx, "snapshot failed, using placeholder frame",
			slog.String("error", err.Error()),
		)
	}

	frame, err := placeholderFrame()
	if err != nil {
		return domain.ImagePreview{}, fmt.Errorf("render placeholder: %w", err)
	}
	return a.store(ctx, frame, ".jpg", true)
}

// IngestFile reads an uploaded file. Read failures, empty files and files over
// the size limit are input errors (domain.ErrUnreadableFile). Bytes that do
// not decode as an image are still accepted with Decoded=false.
func (a *Adapter) IngestFile(ctx context.Context, r io.Reader, filename string) (domain.ImagePreview, error) {
	if r == nil {
		return domain.ImagePreview{}, fmt.Errorf("%w: no file", domain.ErrUnreadableFile)
	}

	data, err := io.ReadAll(io.LimitReader(r, a.maxUpload+1))
	if err != nil {
		return domain.ImagePreview{}, fmt.Errorf("%w: %v", domain.ErrUnreadableFile, err)
	}
	if len(data) == 0 {
		return domain.ImagePreview{}, fmt.Errorf("%w: empty file", domain.ErrUnreadableFile)
	}
	if int64(len(data)) > a.maxUpload {
		return domain.ImagePreview{}, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrUnreadableFile, a.maxUpload)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 8 {
		ext = ".bin"
	}
	return a.store(ctx, data, ext, false)
}

// CollectManualFields captures the manual entry form. It has no side effects.
func CollectManualFields(batchID, expiry, mfgDate string) domain.ManualFields {
	return domain.ManualFields{
		BatchID:         strings.TrimSpace(batchID),
		ExpiryDate:      strings.TrimSpace(expiry),
		ManufactureDate: strings.TrimSpace(mfgDate),
	}
}

func (a *Adapter) store(ctx context.Context, data []byte, ext string, simulated bool) (domain.ImagePreview, error) {
	preview := domain.ImagePreview{
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
		Simulated:   simulated,
	}

	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		b := img.Bounds()
		preview.Width, preview.Height = b.Dx(), b.Dy()
		preview.Decoded = true
	}

	ref, err := a.blobs.Put(ctx, uuid.NewString()+ext, preview.ContentType, data)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.ImagePreview{}, err
		}
		return domain.ImagePreview{}, fmt.Errorf("store preview: %w", err)
	}
	preview.Ref = ref

	return preview, nil
}

func placeholderFrame() ([]byte, error) {
	img := imaging.New(placeholderWidth, placeholderHeight, placeholderColor)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(60)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
