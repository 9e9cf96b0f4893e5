package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/metrics"
)

// AssetStore keeps uploaded files under a root directory. Every path it
// accepts is slash-separated and relative to the root.
type AssetStore struct {
	root string
}

// NewAssetStore returns a store rooted at dir.
func NewAssetStore(dir string) *AssetStore {
	return &AssetStore{root: dir}
}

// Root returns the directory served under /static.
func (a *AssetStore) Root() string { return a.root }

func (a *AssetStore) path(rel string) (string, error) {
	p := filepath.FromSlash(rel)
	if rel == "" || !filepath.IsLocal(p) {
		return "", fmt.Errorf("%w: unsafe path %q", ErrInvalidAsset, rel)
	}
	return filepath.Join(a.root, p), nil
}

// Save writes r to rel and returns the number of bytes written. When limit
// is positive a larger body fails and leaves no file behind.
func (a *AssetStore) Save(rel string, r io.Reader, limit int64) (int64, error) {
	dst, err := a.path(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create asset dir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create asset: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAsset, limit)
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return n, nil
}

// Remove deletes one file. A missing file is not an error.
func (a *AssetStore) Remove(rel string) error {
	p, err := a.path(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveDir deletes a directory tree.
func (a *AssetStore) RemoveDir(rel string) error {
	p, err := a.path(rel)
	if err != nil {
		return err
	}
	return os.RemoveAll(p)
}

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (s *Service) assetDir(k IDFKey) string {
	return path.Join(k.Cluster, s.catalog.Folder(k.Project), k.Code)
}

// UploadAssets stores files for one asset kind of an IDF. Multi kinds
// append in upload order; single kinds keep only the last file and remove
// the one they replace.
func (s *Service) UploadAssets(ctx context.Context, cluster, projectSegment, code, kindName string, files []Upload) (*IDF, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	kind, ok := LookupAssetKind(kindName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset kind %q", ErrInvalidAsset, kindName)
	}
	if len(files) == 0 {
		return nil, invalidInput("files", "at least one file is required")
	}
	if _, err := s.store.GetIDF(ctx, k); err != nil {
		return nil, fmt.Errorf("upload %s to %s: %w", kind.Name, k, err)
	}

	var saved MediaList
	err = s.limiter.Do(ctx, func() error {
		for _, f := range files {
			item, err := s.saveAsset(k, kind, f)
			if err != nil {
				return err
			}
			saved = append(saved, item)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, fmt.Errorf("upload %s to %s: %w", kind.Name, k, err)
	}

	var replaced MediaList
	updated, err := s.store.MutateIDF(ctx, k, func(idf *IDF) error {
		if kind.Multi {
			kind.set(idf, append(kind.get(idf), saved...))
		} else {
			replaced = kind.get(idf)
			kind.set(idf, saved[len(saved)-1:])
		}
		idf.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, fmt.Errorf("upload %s to %s: %w", kind.Name, k, err)
	}
	if !kind.Multi {
		s.discard(ctx, append(replaced, saved[:len(saved)-1]...))
	}

	logging.FromContext(ctx).Info("assets uploaded", "idf", k.String(), "kind", kind.Name, "files", len(saved))
	return s.present(updated), nil
}

func (s *Service) saveAsset(k IDFKey, kind AssetKind, f Upload) (MediaItem, error) {
	body := f.Body
	ctype := strings.TrimSpace(f.ContentType)
	if kind.ImageOnly {
		head := make([]byte, 512)
		n, err := io.ReadFull(body, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return MediaItem{}, fmt.Errorf("read upload: %w", err)
		}
		head = head[:n]
		sniffed := http.DetectContentType(head)
		if !strings.HasPrefix(ctype, "image/") || !strings.HasPrefix(sniffed, "image/") {
			return MediaItem{}, fmt.Errorf("%w: %s only accepts images", ErrInvalidAsset, kind.Name)
		}
		body = io.MultiReader(bytes.NewReader(head), body)
	}

	name := uuid.NewString() + assetExt(f.Filename, ctype, kind.DefaultExt)
	rel := path.Join(s.assetDir(k), kind.Name, name)
	n, err := s.assets.Save(rel, body, s.maxBytes)
	if err != nil {
		return MediaItem{}, err
	}
	metrics.AssetBytesStored.WithLabelValues(kind.Name).Add(float64(n))

	return MediaItem{URL: rel, Name: path.Base(filepath.ToSlash(f.Filename)), Kind: kind.Name}, nil
}

// assetExt keeps a short alphanumeric extension from the client file name,
// else derives one from the content type.
func assetExt(filename, contentType, fallback string) string {
	ext := strings.ToLower(path.Ext(filepath.ToSlash(filename)))
	if validExt(ext) {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 && validExt(exts[0]) {
		return exts[0]
	}
	return fallback
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 8 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// DeleteAsset removes the item at index from an asset kind and deletes
// its file when the portal stored it.
func (s *Service) DeleteAsset(ctx context.Context, cluster, projectSegment, code, kindName string, index int) (*IDF, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	kind, ok := LookupAssetKind(kindName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset kind %q", ErrInvalidAsset, kindName)
	}

	var removed MediaItem
	updated, err := s.store.MutateIDF(ctx, k, func(idf *IDF) error {
		items := kind.get(idf)
		if index < 0 || index >= len(items) {
			return fmt.Errorf("%w: %s[%d]", ErrAssetNotFound, kind.Name, index)
		}
		removed = items[index]
		next := make(MediaList, 0, len(items)-1)
		next = append(next, items[:index]...)
		next = append(next, items[index+1:]...)
		kind.set(idf, next)
		idf.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete %s from %s: %w", kind.Name, k, err)
	}
	s.discard(ctx, MediaList{removed})

	logging.FromContext(ctx).Info("asset deleted", "idf", k.String(), "kind", kind.Name, "index", index)
	return s.present(updated), nil
}

// discard removes stored files. External links are left alone.
func (s *Service) discard(ctx context.Context, items MediaList) {
	for _, it := range items {
		if isExternal(it.URL) {
			continue
		}
		if err := s.assets.Remove(it.URL); err != nil {
			logging.FromContext(ctx).Warn("remove asset failed", "path", it.URL, "error", err)
		}
	}
}

func isExternal(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "/")
}

// publicItem turns a stored relative path into a client URL.
func (s *Service) publicItem(it MediaItem) MediaItem {
	if it.URL != "" && !isExternal(it.URL) {
		it.URL = s.baseURL + "/static/" + it.URL
	}
	return it
}

func (s *Service) publicMedia(items MediaList) MediaList {
	out := make(MediaList, len(items))
	for i, it := range items {
		out[i] = s.publicItem(it)
	}
	return out
}

// storedItem reverses publicItem for URLs that point at this portal.
func (s *Service) storedItem(it MediaItem) MediaItem {
	it.URL = strings.TrimSpace(it.URL)
	prefixes := []string{"/static/"}
	if s.baseURL != "" {
		prefixes = append([]string{s.baseURL + "/static/"}, prefixes...)
	}
	for _, prefix := range prefixes {
		if rel, ok := strings.CutPrefix(it.URL, prefix); ok && rel != "" {
			it.URL = rel
			break
		}
	}
	return it
}

func (s *Service) storedMedia(items MediaList) MediaList {
	items = compactMedia(items)
	for i := range items {
		items[i] = s.storedItem(items[i])
	}
	return items
}
