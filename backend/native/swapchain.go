// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/rhi"
)

// Swapchain is an offscreen ring of render targets. Each Present hands the
// current image to the host and advances the ring, so the image rendered
// for frame N is not overwritten until N+len(ring).
type Swapchain struct {
	dev *Device

	mu        sync.Mutex
	format    gputypes.TextureFormat
	width     uint32
	height    uint32
	images    []*Texture
	current   int
	acquired  bool
	presented *Texture
}

func newSwapchain(d *Device, width, height uint32, format gputypes.TextureFormat, count int) (*Swapchain, error) {
	sc := &Swapchain{dev: d, format: format, width: width, height: height}
	if err := sc.createImages(max(count, 1)); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Swapchain) createImages(count int) error {
	s.destroyImages()
	images := make([]*Texture, 0, count)
	for i := range count {
		desc := rhi.Texture2D(fmt.Sprintf("swapchain[%d]", i), s.width, s.height, s.format)
		desc.Usage = rhi.TextureUsageColorAttachment | rhi.TextureUsageSampled | rhi.TextureUsageTransferSrc
		img, err := newTexture(s.dev, desc)
		if err != nil {
			for _, prev := range images {
				prev.destroy()
			}
			return fmt.Errorf("native: swapchain image %d: %w", i, err)
		}
		img.swapchain = true
		images = append(images, img)
	}
	s.images = images
	s.current = 0
	s.acquired = false
	s.presented = nil
	return nil
}

func (s *Swapchain) destroyImages() {
	for _, img := range s.images {
		img.destroy()
	}
	s.images = nil
}

// Format returns the image format.
func (s *Swapchain) Format() gputypes.TextureFormat { return s.format }

// Size returns the image size.
func (s *Swapchain) Size() (uint32, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize waits for the GPU to go idle and recreates the images.
func (s *Swapchain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("native: swapchain resize to %dx%d", width, height)
	}
	if err := s.dev.WaitIdle(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquired {
		return errors.New("native: swapchain resize while an image is acquired")
	}
	s.width, s.height = width, height
	if err := s.createImages(len(s.images)); err != nil {
		return err
	}
	slogger().Info("native: swapchain resized", "width", width, "height", height)
	return nil
}

// Acquire returns the current image. Acquiring twice without Present
// returns the same image.
func (s *Swapchain) Acquire() (rhi.Texture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return nil, rhi.ErrDeviceLost
	}
	s.acquired = true
	return s.images[s.current], nil
}

// Present marks the acquired image as presented and advances the ring.
func (s *Swapchain) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acquired {
		return errors.New("native: present without acquire")
	}
	s.presented = s.images[s.current]
	s.acquired = false
	s.current = (s.current + 1) % len(s.images)
	return nil
}

// Release drops the acquired image without presenting it. The ring does
// not advance and Presented is unchanged.
func (s *Swapchain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired = false
}

// Presented returns the most recently presented image, or nil before the
// first Present. Its contents are complete once the submission that
// rendered it has been waited on.
func (s *Swapchain) Presented() *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Len returns the number of images in the ring.
func (s *Swapchain) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}
