// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenlng/go-captcha/v2/rotate"
	xdraw "golang.org/x/image/draw"
)

// CaptchaService issues and verifies rotate captcha challenges for the admin
// login. A challenge is a pair of images: the master with a hole and the thumb
// the user rotates into place. Challenges live in memory with a TTL and are
// consumed on the first verification attempt, pass or fail.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

// RotateChallenge carries the rendered captcha assets for one challenge
type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

type captchaServiceImpl struct {
	rotator   rotate.Captcha
	pending   *challengeStore
	tolerance int // acceptable angle difference in degrees
	imageSize int
}

// NewCaptchaServiceRotate constructs a CaptchaService using rotate mode.
// ttl bounds how long a challenge stays answerable, tolerance is the accepted
// angle error in degrees, imageSize is the square pixel size of the assets.
func NewCaptchaServiceRotate(ttl time.Duration, tolerance, imageSize int) (CaptchaService, error) {
	if imageSize <= 0 {
		imageSize = 220
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(imageSize),
	)
	builder.SetResources(
		rotate.WithImages(captchaBackgrounds(4, imageSize)),
	)

	return &captchaServiceImpl{
		rotator:   builder.Make(),
		pending:   newChallengeStore(ttl),
		tolerance: tolerance,
		imageSize: imageSize,
	}, nil
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}

	block := captData.GetData()
	if block == nil {
		return nil, err
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	challengeID := uuid.New().String()
	s.pending.Put(challengeID, block.Angle)

	return &RotateChallenge{
		ID:                challengeID,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	// Single attempt per challenge: take removes the entry whether or not
	// the angle matches.
	targetAngle, ok := s.pending.Take(challengeID)
	if !ok {
		return false
	}
	return rotate.Validate(int(math.Round(userAngle)), targetAngle, s.tolerance)
}

type pendingChallenge struct {
	targetAngle int
	expiresAt   time.Time
}

type challengeStore struct {
	mu  sync.Mutex
	m   map[string]pendingChallenge
	ttl time.Duration
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	cs := &challengeStore{
		m:   make(map[string]pendingChallenge),
		ttl: ttl,
	}
	go cs.expireLoop()
	return cs
}

func (cs *challengeStore) Put(id string, targetAngle int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.m[id] = pendingChallenge{
		targetAngle: targetAngle,
		expiresAt:   time.Now().Add(cs.ttl),
	}
}

// Take returns and removes the challenge, if it exists and has not expired.
func (cs *challengeStore) Take(id string) (int, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	entry, ok := cs.m[id]
	if !ok {
		return 0, false
	}
	delete(cs.m, id)
	if time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.targetAngle, true
}

func (cs *challengeStore) expireLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		cs.mu.Lock()
		for id, entry := range cs.m {
			if now.After(entry.expiresAt) {
				delete(cs.m, id)
			}
		}
		cs.mu.Unlock()
	}
}

// captchaBackgrounds renders a handful of procedural backgrounds so the
// service has image resources without shipping binary assets.
func captchaBackgrounds(n, size int) []image.Image {
	if n <= 0 {
		n = 1
	}
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, stripedNoiseImage(size, size, i))
	}
	return imgs
}

// stripedNoiseImage renders the texture at double size and downscales it
// with a bilinear filter, which softens the raw per-pixel noise.
func stripedNoiseImage(w, h, seed int) image.Image {
	rgba := image.NewRGBA(image.Rect(0, 0, 2*w, 2*h))
	rng := rand.New(rand.NewSource(int64(seed) + 1))
	stripe := 16 + seed*8
	for y := 0; y < 2*h; y++ {
		for x := 0; x < 2*w; x++ {
			band := ((x + y) / stripe) % 2
			base := uint8(120 + band*60)
			noise := uint8(rng.Intn(40))
			rgba.Set(x, y, color.RGBA{R: base, G: base/2 + noise, B: 255 - base + noise/2, A: 255})
		}
	}
	fillRect(rgba, w/4, h/4, w/2, h/8, color.RGBA{R: 255, G: 255, B: 255, A: 28})
	fillRect(rgba, w, 4*h/3, 2*w/3, h/6, color.RGBA{R: 0, G: 0, B: 0, A: 20})

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(out, out.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)
	return out
}

func fillRect(dst *image.RGBA, x, y, w, h int, c color.RGBA) {
	draw.Draw(dst, image.Rect(x, y, x+w, y+h), &image.Uniform{C: c}, image.Point{}, draw.Over)
}
