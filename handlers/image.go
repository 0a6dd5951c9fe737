package handlers

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	defaultThumbHeight = 500
	maxThumbHeight     = 1000
	maxImageBytes      = 10 << 20
	maxImagePixels     = 25_000_000
)

// DefaultImageHosts are the upstream hosts the image proxy may fetch from
// when none are configured.
var DefaultImageHosts = []string{"www.themealdb.com"}

func imageHostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultImageHosts
	}
	for _, h := range allowed {
		if strings.EqualFold(host, strings.TrimSpace(h)) {
			return true
		}
	}
	return false
}

// FetchImageHandler fetches a recipe thumbnail, resizes it to the requested
// height (default 500px) keeping the aspect ratio, and returns it. Only
// allowedHosts are fetched, and images larger than maxImagePixels are refused
// before their pixels are decoded.
func FetchImageHandler(client *http.Client, allowedHosts []string, w http.ResponseWriter, r *http.Request) {
	// Get the URL parameter
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		http.Error(w, "URL parameter is required", http.StatusBadRequest)
		return
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		http.Error(w, "URL parameter must be an http(s) URL", http.StatusBadRequest)
		return
	}
	if !imageHostAllowed(parsed.Hostname(), allowedHosts) {
		http.Error(w, "Image host is not allowed", http.StatusForbidden)
		return
	}

	newHeight := uint(defaultThumbHeight)
	if raw := r.URL.Query().Get("height"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h <= 0 || h > maxThumbHeight {
			http.Error(w, fmt.Sprintf("height must be between 1 and %d", maxThumbHeight), http.StatusBadRequest)
			return
		}
		newHeight = uint(h)
	}

	logger := LoggerFrom(r.Context())

	// Fetch the image from the URL
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, parsed.String(), nil)
	if err != nil {
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("failed to fetch image", zap.String("url", imageURL), zap.Error(err))
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		logger.Warn("failed to read image", zap.String("url", imageURL), zap.Error(err))
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	if len(data) > maxImageBytes {
		http.Error(w, "Image is too large", http.StatusUnprocessableEntity)
		return
	}

	// The header alone is enough to reject canvases we will not allocate.
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logger.Warn("failed to decode image", zap.String("url", imageURL), zap.Error(err))
		http.Error(w, "Failed to decode image", http.StatusUnprocessableEntity)
		return
	}
	if imgCfg.Width <= 0 || imgCfg.Height <= 0 || int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		http.Error(w, "Image dimensions are too large", http.StatusUnprocessableEntity)
		return
	}

	// Decode the image
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("failed to decode image", zap.String("url", imageURL), zap.Error(err))
		http.Error(w, "Failed to decode image", http.StatusUnprocessableEntity)
		return
	}

	// Calculate new width while maintaining aspect ratio
	originalBounds := img.Bounds()
	aspectRatio := float64(originalBounds.Dx()) / float64(originalBounds.Dy())
	newWidth := uint(float64(newHeight) * aspectRatio)

	resizedImg := resize.Resize(newWidth, newHeight, img, resize.Lanczos3)

	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		err = jpeg.Encode(w, resizedImg, nil)
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = png.Encode(w, resizedImg)
	default:
		http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		return
	}

	if err != nil {
		logger.Warn("failed to encode image", zap.Error(err))
	}
}
