package services

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"net/http"
	"strings"
	"sync"
	"unicode"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"

	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const (
	avatarSize          = 256
	maxAvatarUploadSize = 10 << 20
	pngDataURIPrefix    = "data:image/png;base64,"
)

var defaultAvatarColors = []string{
	"#6366F1", "#8B5CF6", "#EC4899", "#F43F5E", "#F97316",
	"#EAB308", "#22C55E", "#14B8A6", "#0EA5E9", "#3B82F6",
}

// AvatarService renders profile pictures as PNG data URIs stored directly on the user document.
type AvatarService interface {
	InitialsDataURI(u *user.User) (string, error)
	UploadedDataURI(raw []byte) (string, error)
}

type avatarService struct {
	log      *logger.Logger
	bgColors []color.NRGBA

	// truetype faces cache glyphs and are not safe for concurrent use
	mu       sync.Mutex
	fontFace font.Face
}

// NewAvatarService uses the embedded Go Bold font. colorHexes overrides the default palette when non-empty.
func NewAvatarService(log *logger.Logger, colorHexes []string) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	if len(colorHexes) == 0 {
		colorHexes = defaultAvatarColors
	}
	bgColors := make([]color.NRGBA, 0, len(colorHexes))
	for _, h := range colorHexes {
		r, g, b, err := parseHexRGB(normalizeHex(h))
		if err != nil {
			serviceLog.Warn("Skipping invalid avatar color", "color", h)
			continue
		}
		bgColors = append(bgColors, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	if len(bgColors) == 0 {
		return nil, fmt.Errorf("avatar colors list is empty")
	}

	face, err := loadFontFace(gobold.TTF, avatarSize*0.4)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}
	return &avatarService{log: serviceLog, bgColors: bgColors, fontFace: face}, nil
}

func (as *avatarService) InitialsDataURI(u *user.User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("user required")
	}
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()

	dc.SetColor(as.pickColor(u.Email + u.Name))
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	as.mu.Lock()
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(u.Name), avatarSize/2, avatarSize/2, 0.5, 0.35)
	as.mu.Unlock()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return pngDataURI(buf.Bytes()), nil
}

func (as *avatarService) UploadedDataURI(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", apierr.New(http.StatusBadRequest, "invalid_avatar", errors.New("empty upload"))
	}
	if len(raw) > maxAvatarUploadSize {
		return "", apierr.New(http.StatusRequestEntityTooLarge, "avatar_too_large", errors.New("avatar must be 10MB or smaller"))
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return "", apierr.New(http.StatusBadRequest, "invalid_avatar", err)
	}
	return pngDataURI(processed.Bytes()), nil
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side == 0 {
		return out, fmt.Errorf("decode image: empty bounds")
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

// pickColor is stable per seed so a user keeps the same colour across regenerations.
func (as *avatarService) pickColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(seed)))
	return as.bgColors[int(h.Sum32()%uint32(len(as.bgColors)))]
}

func pngDataURI(b []byte) string {
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(b)
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	s = strings.ToUpper(s)
	if len(s) != 7 {
		return ""
	}
	if _, _, _, err := parseHexRGB(s); err != nil {
		return ""
	}
	return s
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

// computeInitials takes the first letter of the first and last words of a display name.
func computeInitials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	switch len(words) {
	case 0:
		return "?"
	case 1:
		return strings.ToUpper(firstRune(words[0]))
	default:
		return strings.ToUpper(firstRune(words[0]) + firstRune(words[len(words)-1]))
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func loadFontFace(ttf []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
