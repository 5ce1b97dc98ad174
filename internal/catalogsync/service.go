// Package catalogsync mirrors the storage folder tree into the catalog. The
// root folder's subfolders are categories, their subfolders are
// sub-categories, and files inside those map to draft products keyed by
// file id. Sync runs are additive: existing records are skipped, never
// updated or removed.
package catalogsync

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/internal/storage"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// CatalogAPI is the slice of the catalog client sync runs use.
type CatalogAPI interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name, folderID string) (int, error)
	SubCategories(ctx context.Context) ([]domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, name, category, folderID string) (int, error)
	ProductByFileID(ctx context.Context, fileID string) (*domain.Product, error)
	CreateDraftProduct(ctx context.Context, name, fileID, category, subCategory string) (int, error)
}

// FolderLister walks the storage tree.
type FolderLister interface {
	ListFolder(ctx context.Context, folderID string) ([]storage.File, error)
}

// Invalidator drops mirrored catalog collections after a mutating run.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// FolderReport summarizes one folder's sync outcome.
type FolderReport struct {
	Folder  string `json:"folder"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

// Service runs the folder-tree sync passes.
type Service struct {
	catalog CatalogAPI
	files   FolderLister
	mirror  Invalidator
	rootID  string
	logger  *slog.Logger
}

// NewService creates a catalog sync service rooted at the given storage
// folder.
func NewService(catalogAPI CatalogAPI, files FolderLister, mirror Invalidator, rootFolderID string, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalogAPI,
		files:   files,
		mirror:  mirror,
		rootID:  rootFolderID,
		logger:  logger,
	}
}

// SyncCategories creates a category for every root subfolder the catalog
// does not know yet, keyed by folder id.
func (s *Service) SyncCategories(ctx context.Context) ([]FolderReport, error) {
	if s.rootID == "" {
		return nil, apperrors.InvalidInput("sync root folder is not configured")
	}

	existing, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.FolderID] = true
	}

	entries, err := s.files.ListFolder(ctx, s.rootID)
	if err != nil {
		return nil, err
	}

	report := FolderReport{Folder: "root"}
	for _, f := range entries {
		if !f.IsFolder() {
			continue
		}
		if known[f.ID] {
			report.Skipped++
			continue
		}
		if _, err := s.catalog.CreateCategory(ctx, f.Name, f.ID); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "category created",
			slog.String("name", f.Name),
			slog.String("folder_id", f.ID),
		)
		report.Created++
	}

	if report.Created > 0 {
		s.mirror.Invalidate(ctx, "categories")
	}
	return []FolderReport{report}, nil
}

// SyncSubCategories walks every known category folder and creates the
// sub-categories its subfolders imply.
func (s *Service) SyncSubCategories(ctx context.Context) ([]FolderReport, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.catalog.SubCategories(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, sc := range existing {
		known[sc.FolderID] = true
	}

	var reports []FolderReport
	created := 0
	for _, cat := range categories {
		if cat.FolderID == "" {
			continue
		}
		entries, err := s.files.ListFolder(ctx, cat.FolderID)
		if err != nil {
			return nil, err
		}

		report := FolderReport{Folder: cat.Name}
		for _, f := range entries {
			if !f.IsFolder() {
				continue
			}
			if known[f.ID] {
				report.Skipped++
				continue
			}
			if _, err := s.catalog.CreateSubCategory(ctx, f.Name, cat.Name, f.ID); err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "sub-category created",
				slog.String("name", f.Name),
				slog.String("category", cat.Name),
				slog.String("folder_id", f.ID),
			)
			report.Created++
			created++
		}
		reports = append(reports, report)
	}

	if created > 0 {
		s.mirror.Invalidate(ctx, "sub-categories")
	}
	return reports, nil
}

// SyncProducts walks every known sub-category folder and creates a draft
// product for each file the catalog has no record of.
func (s *Service) SyncProducts(ctx context.Context) ([]FolderReport, error) {
	subCategories, err := s.catalog.SubCategories(ctx)
	if err != nil {
		return nil, err
	}

	var reports []FolderReport
	created := 0
	for _, sc := range subCategories {
		if sc.FolderID == "" {
			continue
		}
		entries, err := s.files.ListFolder(ctx, sc.FolderID)
		if err != nil {
			return nil, err
		}

		report := FolderReport{Folder: sc.Name}
		for _, f := range entries {
			if f.IsFolder() {
				continue
			}
			existing, err := s.catalog.ProductByFileID(ctx, f.ID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				report.Skipped++
				continue
			}
			if _, err := s.catalog.CreateDraftProduct(ctx, productName(f.Name), f.ID, sc.Category, sc.Name); err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "draft product created",
				slog.String("name", productName(f.Name)),
				slog.String("file_id", f.ID),
				slog.String("sub_category", sc.Name),
			)
			report.Created++
			created++
		}
		reports = append(reports, report)
	}

	if created > 0 {
		s.mirror.Invalidate(ctx, "products")
	}
	return reports, nil
}

// productName strips the file extension; "guitar-course.pdf" becomes
// "guitar-course".
func productName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
