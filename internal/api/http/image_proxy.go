package apihttp

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxProxiedImageBytes = 10 << 20
	imageSniffBytes      = 512
)

var errImageHostNotAllowed = errors.New("image host not allowed")

// handleImageProxy streams poster art from the catalog CDN so browsers never
// talk to it directly. Only allowlisted hosts are fetched, and the body must
// sniff as an image.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("url")
	target, err := s.validatePosterURL(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid image url")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid image url")
		return
	}
	req.Header.Set("User-Agent", "moviescout/1.0")
	req.Header.Set("Accept", "image/*")

	resp, err := s.imageProxyClient().Do(req)
	if err != nil {
		s.logger.Warn("image fetch failed",
			slog.String("url", truncate(raw, 200)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "image_error", "failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, "image_error", "failed to fetch image")
		return
	}

	sniff := make([]byte, imageSniffBytes)
	n, err := io.ReadFull(resp.Body, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadGateway, "image_error", "failed to fetch image")
		return
	}
	sniff = sniff[:n]

	contentType := http.DetectContentType(sniff)
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "image_error", "not an image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(sniff); err != nil {
		return
	}
	remaining := int64(maxProxiedImageBytes - len(sniff))
	_, _ = io.Copy(w, io.LimitReader(resp.Body, remaining))
}

func (s *Server) validatePosterURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("unsupported scheme")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, errors.New("missing host")
	}
	// Raw IPs sidestep the host allowlist, so they are rejected outright.
	if net.ParseIP(host) != nil {
		return nil, errImageHostNotAllowed
	}
	if _, ok := s.imageHosts[host]; !ok {
		return nil, errImageHostNotAllowed
	}
	return u, nil
}

func (s *Server) imageProxyClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return errors.New("too many redirects")
			}
			if _, err := s.validatePosterURL(req.URL.String()); err != nil {
				return err
			}
			return nil
		},
	}
}
