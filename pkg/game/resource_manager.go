package game

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	auaudio "github.com/decker502/void/internal/audio"
	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/embedded"
)

// placeholderSize 缺失纹理时生成的占位图边长
const placeholderSize = 256

// ResourceManager is responsible for loading wall textures and sounds.
//
// Decoded texture images are cached by path and may be loaded from several
// goroutines at once (see PreloadTextures); the cache is guarded by a mutex.
// GPU images (ebiten.Image) are created per wall in NewMaterial so that each
// wall can release its material independently.
//
// Usage:
//
//	rm := NewResourceManager(audioContext, viewerConfig)
//	if err := rm.PreloadTextures(ctx, []string{"A", "B"}); err != nil {
//	    log.Printf("Failed to preload textures: %v", err)
//	}
//	material := rm.NewMaterial(config.TextureConfig{Letter: "B", Opacity: 0.9})
type ResourceManager struct {
	audioContext *audio.Context       // may be nil when sound is disabled
	viewer       *config.ViewerConfig // texture/sound path templates and texture size

	mu         sync.Mutex
	imageCache map[string]image.Image // Cache for decoded textures: path -> image
}

// NewResourceManager creates a ResourceManager.
// audioContext may be nil, in which case sound loading fails with an error.
func NewResourceManager(audioContext *audio.Context, viewer *config.ViewerConfig) *ResourceManager {
	if viewer == nil {
		viewer = config.DefaultViewerConfig()
	}
	return &ResourceManager{
		audioContext: audioContext,
		viewer:       viewer,
		imageCache:   make(map[string]image.Image),
	}
}

// LoadTextureImage loads and decodes a texture, scaling it down so that
// neither side exceeds reflectorTextureSize.
// The result is cached; missing or undecodable files produce an error.
func (rm *ResourceManager) LoadTextureImage(path string) (image.Image, error) {
	rm.mu.Lock()
	if cached, ok := rm.imageCache[path]; ok {
		rm.mu.Unlock()
		return cached, nil
	}
	rm.mu.Unlock()

	file, err := embedded.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	img = fitTexture(img, rm.viewer.ReflectorTextureSize)

	rm.mu.Lock()
	rm.imageCache[path] = img
	rm.mu.Unlock()
	return img, nil
}

// fitTexture 等比缩小到 maxSize 以内（CatmullRom 重采样）
func fitTexture(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}

	scale := float64(maxSize) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale+0.5))
	dh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// PreloadTextures decodes the textures for all letters in parallel.
// Missing files are not an error: NewMaterial falls back to a placeholder.
func (rm *ResourceManager) PreloadTextures(ctx context.Context, letters []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, letter := range letters {
		path := rm.viewer.TexturePath(letter)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := rm.LoadTextureImage(path); err != nil {
				log.Printf("[ResourceManager] Warning: %v (placeholder will be used)", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// TextureImage returns the decoded texture for a letter, or a generated
// placeholder when the file is not available.
func (rm *ResourceManager) TextureImage(letter string) image.Image {
	img, err := rm.LoadTextureImage(rm.viewer.TexturePath(letter))
	if err != nil {
		return PlaceholderTexture(letter)
	}
	return img
}

// NewMaterial creates a double-sided, transparent material for one wall.
// Every call creates its own GPU image.
func (rm *ResourceManager) NewMaterial(tex config.TextureConfig) *components.Material {
	return &components.Material{
		Texture:    ebiten.NewImageFromImage(rm.TextureImage(tex.Letter)),
		Opacity:    tex.Opacity,
		Rotation:   tex.Rotation,
		DoubleSide: true,
	}
}

var placeholderPalette = []color.RGBA{
	colornames.Lightsteelblue,
	colornames.Slategray,
	colornames.Gainsboro,
	colornames.Darkgray,
	colornames.Silver,
	colornames.Lightslategray,
}

// PlaceholderTexture 生成按字母着色的条纹占位纹理
func PlaceholderTexture(letter string) image.Image {
	h := fnv.New32a()
	h.Write([]byte(letter))
	base := placeholderPalette[h.Sum32()%uint32(len(placeholderPalette))]

	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			c := base
			if (x/32+y/32)%2 == 1 {
				c.R = uint8(int(c.R) * 3 / 4)
				c.G = uint8(int(c.G) * 3 / 4)
				c.B = uint8(int(c.B) * 3 / 4)
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// LoadLoopedSound loads an MP3/OGG/AU file and returns a positional sound whose
// player is created on first Play.
func (rm *ResourceManager) LoadLoopedSound(path string) (*PositionalSound, error) {
	if rm.audioContext == nil {
		return nil, fmt.Errorf("failed to load sound %s: audio context not available", path)
	}

	file, err := embedded.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer file.Close()

	// Read the entire file into memory so the stream can seek freely
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	ctx := rm.audioContext
	ext := strings.ToLower(filepath.Ext(path))
	if _, err := decodeAudio(ext, data, ctx.SampleRate()); err != nil {
		return nil, fmt.Errorf("failed to decode audio %s: %w", path, err)
	}

	newPlayer := func(loop bool) (soundPlayer, error) {
		stream, err := decodeAudio(ext, data, ctx.SampleRate())
		if err != nil {
			return nil, err
		}
		if loop {
			return ctx.NewPlayer(audio.NewInfiniteLoop(stream, stream.Length()))
		}
		return ctx.NewPlayer(stream)
	}
	return newPositionalSound(filepath.Base(path), newPlayer), nil
}

type audioStream interface {
	io.ReadSeeker
	Length() int64
}

// resampledStream 重采样后的流，长度按采样率比例换算并对齐到帧
type resampledStream struct {
	io.ReadSeeker
	length int64
}

func (r *resampledStream) Length() int64 { return r.length }

// decodeAudio 解码为 sampleRate 下的 16 位立体声流
func decodeAudio(ext string, data []byte, sampleRate int) (audioStream, error) {
	reader := bytes.NewReader(data)
	switch ext {
	case ".mp3":
		return mp3.DecodeWithSampleRate(sampleRate, reader)
	case ".ogg":
		return vorbis.DecodeWithSampleRate(sampleRate, reader)
	case ".au":
		stream, err := auaudio.DecodeAU(reader)
		if err != nil {
			return nil, err
		}
		if stream.SampleRate() == sampleRate {
			return stream, nil
		}
		const bytesPerFrame = 4
		frames := stream.Length() / bytesPerFrame * int64(sampleRate) / int64(stream.SampleRate())
		return &resampledStream{
			ReadSeeker: audio.Resample(stream, stream.Length(), stream.SampleRate(), sampleRate),
			length:     frames * bytesPerFrame,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .ogg, .au)", ext)
	}
}
