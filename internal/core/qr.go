package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length of generated QR images in pixels.
const QRSize = 256

// IDFPageURL returns the public page address of an IDF. base is used when
// no public base URL is configured.
func (s *Service) IDFPageURL(k IDFKey, base string) string {
	if s.baseURL != "" {
		base = s.baseURL
	}
	base = strings.TrimRight(base, "/")
	return base + "/" + url.PathEscape(k.Cluster) + "/" + url.PathEscape(s.catalog.Folder(k.Project)) +
		"/idf/" + url.PathEscape(k.Code)
}

// QRCode returns a PNG QR code linking to the IDF's page. requestBase is
// the scheme and host the request arrived on.
func (s *Service) QRCode(ctx context.Context, cluster, projectSegment, code, requestBase string) ([]byte, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetIDF(ctx, k); err != nil {
		return nil, fmt.Errorf("qr %s: %w", k, err)
	}

	png, err := qrcode.Encode(s.IDFPageURL(k, requestBase), qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr %s: %w", k, err)
	}
	return png, nil
}
