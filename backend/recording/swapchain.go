// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/rhi"
)

// Swapchain is a ring of recorded images. It shares the device lock.
type Swapchain struct {
	dev      *Device
	format   gputypes.TextureFormat
	width    uint32
	height   uint32
	images   []*Texture
	current  int
	acquired bool
	presents int
	releases int
}

func newSwapchain(d *Device, width, height uint32, format gputypes.TextureFormat, count int) *Swapchain {
	sc := &Swapchain{dev: d, format: format, width: width, height: height}
	sc.createImagesLocked(count)
	return sc
}

func (s *Swapchain) createImagesLocked(count int) {
	if count < 1 {
		count = 1
	}
	for _, img := range s.images {
		img.destroyed = true
		delete(s.dev.live, img.id)
		delete(s.dev.states, img.id)
	}
	s.images = make([]*Texture, count)
	for i := range s.images {
		desc := rhi.Texture2D(fmt.Sprintf("swapchain[%d]", i), s.width, s.height, s.format)
		desc.Usage = rhi.TextureUsageColorAttachment | rhi.TextureUsageTransferSrc
		s.images[i] = s.dev.newTextureLocked(desc, true)
	}
	s.current = 0
	s.acquired = false
}

// Format returns the image format.
func (s *Swapchain) Format() gputypes.TextureFormat { return s.format }

// Size returns the image size.
func (s *Swapchain) Size() (uint32, uint32) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	return s.width, s.height
}

// Resize recreates the images at the new size.
func (s *Swapchain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("recording: swapchain resize to %dx%d", width, height)
	}
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.acquired {
		return errors.New("recording: swapchain resize while an image is acquired")
	}
	s.width, s.height = width, height
	s.createImagesLocked(len(s.images))
	slogger().Info("recording: swapchain resized", "width", width, "height", height)
	return nil
}

// Acquire returns the current image. Acquiring twice without Present
// returns the same image.
func (s *Swapchain) Acquire() (rhi.Texture, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if err := s.dev.takeFailureLocked(OpAcquire); err != nil {
		return nil, err
	}
	s.acquired = true
	return s.images[s.current], nil
}

// Present advances the ring. The image must have been transitioned to
// StatePresent; anything else is recorded as a violation.
func (s *Swapchain) Present() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if err := s.dev.takeFailureLocked(OpPresent); err != nil {
		return err
	}
	if !s.acquired {
		return errors.New("recording: present without acquire")
	}
	img := s.images[s.current]
	if st := s.dev.states[img.id]; st != rhi.StatePresent {
		s.dev.violations = append(s.dev.violations,
			fmt.Sprintf("Present: %s is in %s", img.desc.Name, st))
	}
	s.acquired = false
	s.presents++
	s.current = (s.current + 1) % len(s.images)
	return nil
}

// Release drops the acquired image without presenting it. The ring does
// not advance.
func (s *Swapchain) Release() {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.acquired {
		s.acquired = false
		s.releases++
	}
}

// Images returns the swapchain images in ring order.
func (s *Swapchain) Images() []rhi.Texture {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	out := make([]rhi.Texture, len(s.images))
	for i, img := range s.images {
		out[i] = img
	}
	return out
}
