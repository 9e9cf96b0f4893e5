package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/table"
)

// Options configures a Service.
type Options struct {
	StaticDir      string // Root directory for uploaded assets
	PublicBaseURL  string // Prefix for absolute media URLs; empty yields "/static/..."
	MaxUploadBytes int64  // Per-file limit; 0 means unlimited
	Limiter        *UploadLimiter
}

// Service implements every IDF portal operation on top of a Store.
type Service struct {
	store    Store
	catalog  *config.Catalog
	assets   *AssetStore
	limiter  *UploadLimiter
	baseURL  string
	maxBytes int64
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires a Service. The catalog is required and never modified.
func NewService(store Store, catalog *config.Catalog, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: nil store")
	}
	if catalog == nil {
		return nil, errors.New("core: nil catalog")
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	staticDir := opts.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}

	return &Service{
		store:    store,
		catalog:  catalog,
		assets:   NewAssetStore(staticDir),
		limiter:  limiter,
		baseURL:  strings.TrimRight(opts.PublicBaseURL, "/"),
		maxBytes: opts.MaxUploadBytes,
		validate: NewValidator(),
		now:      time.Now,
	}, nil
}

// Catalog returns the cluster/project catalog the service validates against.
func (s *Service) Catalog() *config.Catalog { return s.catalog }

// Limiter returns the upload limiter.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Resolve validates the cluster and maps the project path segment to its
// stored name.
func (s *Service) Resolve(cluster, projectSegment string) (string, error) {
	if !s.catalog.HasCluster(cluster) {
		return "", fmt.Errorf("%w: %s", ErrClusterNotFound, cluster)
	}
	project, ok := s.catalog.ResolveProject(cluster, projectSegment)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrProjectNotFound, cluster, projectSegment)
	}
	return project, nil
}

func (s *Service) key(cluster, projectSegment, code string) (IDFKey, error) {
	project, err := s.Resolve(cluster, projectSegment)
	if err != nil {
		return IDFKey{}, err
	}
	k := IDFKey{Cluster: cluster, Project: project, Code: strings.TrimSpace(code)}
	if err := k.validate(); err != nil {
		return IDFKey{}, err
	}
	return k, nil
}

// ListIDFs returns the IDFs of a project ordered by title.
func (s *Service) ListIDFs(ctx context.Context, cluster, projectSegment string, opts ListOptions) ([]IDFIndex, error) {
	project, err := s.Resolve(cluster, projectSegment)
	if err != nil {
		return nil, err
	}
	opts, err = opts.normalize()
	if err != nil {
		return nil, err
	}

	idfs, err := s.store.ListIDFs(ctx, cluster, project, opts)
	if err != nil {
		return nil, fmt.Errorf("list idfs %s/%s: %w", cluster, project, err)
	}

	out := make([]IDFIndex, len(idfs))
	for i := range idfs {
		out[i] = IDFIndex{
			Code:  idfs[i].Code,
			Title: idfs[i].Title,
			Site:  idfs[i].Site,
			Room:  idfs[i].Room,
		}
		if opts.IncludeHealth {
			h := healthOf(idfs[i].Table)
			out[i].Health = &h
		}
	}
	return out, nil
}

// GetIDF returns one IDF with health computed and media URLs made absolute.
func (s *Service) GetIDF(ctx context.Context, cluster, projectSegment, code string) (*IDF, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	idf, err := s.store.GetIDF(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("get idf %s: %w", k, err)
	}
	return s.present(idf), nil
}

// CreateIDF stores a new IDF. The code must be unused within the project.
func (s *Service) CreateIDF(ctx context.Context, cluster, projectSegment string, in IDFUpsert) (*IDF, error) {
	k, err := s.key(cluster, projectSegment, in.Code)
	if err != nil {
		return nil, err
	}
	idf, err := s.fromUpsert(k, in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	idf.CreatedAt, idf.UpdatedAt = now, now

	if err := s.store.CreateIDF(ctx, idf); err != nil {
		return nil, fmt.Errorf("create idf %s: %w", k, err)
	}
	logging.FromContext(ctx).Info("idf created", "idf", k.String())
	return s.present(idf), nil
}

// UpdateIDF replaces every editable field of an IDF, including its table.
// The code in the payload is ignored; records are addressed by path.
func (s *Service) UpdateIDF(ctx context.Context, cluster, projectSegment, code string, in IDFUpsert) (*IDF, error) {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return nil, err
	}
	in.Code = k.Code
	next, err := s.fromUpsert(k, in)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.MutateIDF(ctx, k, func(cur *IDF) error {
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = s.now().UTC()
		*cur = *next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update idf %s: %w", k, err)
	}
	logging.FromContext(ctx).Info("idf updated", "idf", k.String())
	return s.present(updated), nil
}

// DeleteIDF removes an IDF, its devices and its uploaded files.
func (s *Service) DeleteIDF(ctx context.Context, cluster, projectSegment, code string) error {
	k, err := s.key(cluster, projectSegment, code)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIDF(ctx, k); err != nil {
		return fmt.Errorf("delete idf %s: %w", k, err)
	}
	if err := s.assets.RemoveDir(s.assetDir(k)); err != nil {
		logging.FromContext(ctx).Warn("remove idf assets failed", "idf", k.String(), "error", err)
	}
	logging.FromContext(ctx).Info("idf deleted", "idf", k.String())
	return nil
}

func (s *Service) fromUpsert(k IDFKey, in IDFUpsert) (*IDF, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, inputErrorFrom(err)
	}

	idf := &IDF{
		Cluster:     k.Cluster,
		Project:     k.Project,
		Code:        k.Code,
		Title:       in.Title,
		Description: in.Description,
		Site:        strings.TrimSpace(in.Site),
		Room:        strings.TrimSpace(in.Room),
		Images:      s.storedMedia(append(append(MediaList{}, in.Images...), in.Gallery...)),
		Documents:   s.storedMedia(in.Documents),
		Diagrams:    s.storedMedia(in.Diagrams),
		DFO:         s.storedMedia(in.DFO),
		Location:    s.storedMedia(in.Location),
	}
	if in.Logo != nil && strings.TrimSpace(in.Logo.URL) != "" {
		logo := s.storedItem(*in.Logo)
		idf.Logo = &logo
	}
	if in.Table != nil {
		t, err := table.Replace(table.Table{}, *in.Table)
		if err != nil {
			return nil, err
		}
		idf.Table = &t
	}
	return idf, nil
}

// present returns a copy of idf ready for clients.
func (s *Service) present(idf *IDF) *IDF {
	out := *idf
	out.Images = s.publicMedia(idf.Images)
	out.Documents = s.publicMedia(idf.Documents)
	out.Diagrams = s.publicMedia(idf.Diagrams)
	out.DFO = s.publicMedia(idf.DFO)
	out.Location = s.publicMedia(idf.Location)
	if idf.Logo != nil {
		logo := s.publicItem(*idf.Logo)
		out.Logo = &logo
	}
	out.Health = nil
	if idf.Table != nil {
		h := table.HealthOf(*idf.Table)
		out.Health = &h
	}
	return &out
}

func healthOf(t *table.Table) table.Health {
	if t == nil {
		return table.HealthOf(table.Table{})
	}
	return table.HealthOf(*t)
}
