// Package app holds the state behind an interactive segmentation session:
// the opened image, its working copy and the status line shown to the user.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"somsegment/internal/models"
	"somsegment/pkg/imageio"
	"somsegment/pkg/segmentation"
)

// Status messages shown to the user
const (
	StatusNoSelection   = "No image was selected"
	StatusOpenFailed    = "There was an error opening the image"
	StatusNeedImage     = "Please choose an image before segmenting"
	StatusSegmenting    = "Segmenting using Kohonen (%dx%d), please wait..."
	StatusSegmented     = "Image segmented"
	StatusSegmentFailed = "There was an error segmenting the image"
	StatusRestored      = "Image restored"
	StatusSaved         = "Image saved"
	StatusSaveFailed    = "There was an error saving the image"
)

// ErrNoImage is returned by Segment when nothing has been opened
var ErrNoImage = errors.New("no image loaded")

// State holds the session. The original image is an immutable snapshot taken on
// open; the current image is what is displayed and saved.
type State struct {
	mu sync.RWMutex

	// Path of the opened file
	Path string

	original *models.Image
	current  *models.Image
	result   *segmentation.Result
	status   string

	// params is the base pipeline configuration; Segment overrides the grid size
	params segmentation.Params

	// previewHeight caps Display output
	previewHeight int

	// OnStatus, when set, is called with every new status message so a surface
	// can repaint before a long segmentation starts
	OnStatus func(string)

	log zerolog.Logger
}

// NewState creates an empty session
func NewState(params segmentation.Params, previewHeight int, log zerolog.Logger) *State {
	return &State{
		params:        params,
		previewHeight: previewHeight,
		log:           log.With().Str("component", "app").Logger(),
	}
}

// Status returns the current status message
func (s *State) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) setStatus(msg string) {
	s.status = msg
	if s.OnStatus != nil {
		s.OnStatus(msg)
	}
}

// Open loads path as the new original and working image.
// An empty path means the user cancelled the selection.
func (s *State) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		s.setStatus(StatusNoSelection)
		return nil
	}

	img, err := imageio.Load(path)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("failed to open image")
		s.setStatus(StatusOpenFailed)
		return err
	}

	s.Path = path
	s.original = img
	s.current = img.Clone()
	s.result = nil
	s.setStatus("")

	s.log.Info().
		Str("path", path).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("bands", img.Bands).
		Msg("image opened")
	return nil
}

// Segment runs the pipeline on the original image with an n×m map and makes the
// result the current image
func (s *State) Segment(ctx context.Context, n, m int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		s.setStatus(StatusNeedImage)
		return ErrNoImage
	}

	s.setStatus(fmt.Sprintf(StatusSegmenting, n, m))

	params := s.params
	params.SOM.Rows = n
	params.SOM.Cols = m
	params.Logger = s.log

	res, err := segmentation.Run(ctx, s.original, params)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConfiguration), errors.Is(err, models.ErrData):
			s.setStatus(fmt.Sprintf("%s: %v", StatusSegmentFailed, err))
		default:
			s.log.Error().Err(err).Msg("segmentation failed")
			s.setStatus(StatusSegmentFailed)
		}
		return err
	}

	s.current = res.Image
	s.result = res
	s.setStatus(StatusSegmented)
	return nil
}

// Restore discards the segmentation and shows a copy of the original again.
// It does nothing when no image is open.
func (s *State) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		return
	}
	s.current = s.original.Clone()
	s.result = nil
	s.setStatus(StatusRestored)
}

// Save writes the current image to path. It does nothing when no image is open
// or the path is empty.
func (s *State) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || path == "" {
		return nil
	}

	if err := imageio.Save(path, s.current); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("failed to save image")
		s.setStatus(StatusSaveFailed)
		return err
	}

	s.setStatus(StatusSaved)
	s.log.Info().Str("path", path).Msg("image saved")
	return nil
}

// Current returns the working image. Callers must not modify it.
func (s *State) Current() *models.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Result returns the last segmentation result, nil after open or restore
func (s *State) Result() *segmentation.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Display returns the current image scaled down for display. The returned
// image is never used for saving.
func (s *State) Display() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoImage
	}
	img, err := imageio.ToImage(s.current)
	if err != nil {
		return nil, err
	}
	return imageio.Preview(img, s.previewHeight), nil
}
