package catalogsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/internal/storage"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

type fakeCatalog struct {
	categories    []domain.Category
	subCategories []domain.SubCategory
	products      map[string]*domain.Product

	createdCategories    []string
	createdSubCategories []string
	createdProducts      []string
	createErr            error
}

func (f *fakeCatalog) Categories(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, name, folderID string) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.createdCategories = append(f.createdCategories, name+"/"+folderID)
	return len(f.createdCategories), nil
}

func (f *fakeCatalog) SubCategories(context.Context) ([]domain.SubCategory, error) {
	return f.subCategories, nil
}

func (f *fakeCatalog) CreateSubCategory(_ context.Context, name, category, folderID string) (int, error) {
	f.createdSubCategories = append(f.createdSubCategories, category+"/"+name+"/"+folderID)
	return len(f.createdSubCategories), nil
}

func (f *fakeCatalog) ProductByFileID(_ context.Context, fileID string) (*domain.Product, error) {
	return f.products[fileID], nil
}

func (f *fakeCatalog) CreateDraftProduct(_ context.Context, name, fileID, category, subCategory string) (int, error) {
	f.createdProducts = append(f.createdProducts, category+"/"+subCategory+"/"+name+"/"+fileID)
	return len(f.createdProducts), nil
}

type fakeStorage struct {
	folders map[string][]storage.File
	err     error
}

func (f *fakeStorage) ListFolder(_ context.Context, folderID string) ([]storage.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.folders[folderID], nil
}

type fakeInvalidator struct {
	keys []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, keys ...string) {
	f.keys = append(f.keys, keys...)
}

func folder(id, name string) storage.File {
	return storage.File{ID: id, Name: name, MimeType: storage.FolderMimeType}
}

func file(id, name string) storage.File {
	return storage.File{ID: id, Name: name, MimeType: "application/pdf"}
}

func newTestService(cat *fakeCatalog, fs *fakeStorage, inv *fakeInvalidator) *Service {
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(cat, fs, inv, "root-1", l)
}

func TestSyncCategories_CreatesMissing(t *testing.T) {
	cat := &fakeCatalog{
		categories: []domain.Category{{ID: 1, Name: "music", FolderID: "fold-music"}},
	}
	fs := &fakeStorage{folders: map[string][]storage.File{
		"root-1": {
			folder("fold-music", "music"),
			folder("fold-books", "books"),
			file("stray-file", "readme.txt"),
		},
	}}
	inv := &fakeInvalidator{}
	svc := newTestService(cat, fs, inv)

	reports, err := svc.SyncCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Created)
	assert.Equal(t, 1, reports[0].Skipped)
	assert.Equal(t, []string{"books/fold-books"}, cat.createdCategories)
	assert.Equal(t, []string{"categories"}, inv.keys)
}

func TestSyncCategories_AllKnownSkipsInvalidation(t *testing.T) {
	cat := &fakeCatalog{
		categories: []domain.Category{{ID: 1, Name: "music", FolderID: "fold-music"}},
	}
	fs := &fakeStorage{folders: map[string][]storage.File{
		"root-1": {folder("fold-music", "music")},
	}}
	inv := &fakeInvalidator{}
	svc := newTestService(cat, fs, inv)

	reports, err := svc.SyncCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].Created)
	assert.Equal(t, 1, reports[0].Skipped)
	assert.Empty(t, inv.keys)
}

func TestSyncCategories_MissingRootRejected(t *testing.T) {
	svc := NewService(&fakeCatalog{}, &fakeStorage{}, &fakeInvalidator{}, "", slog.New(slog.NewJSONHandler(io.Discard, nil)))

	_, err := svc.SyncCategories(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSyncCategories_StorageErrorSurfaces(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, &fakeStorage{err: errors.New("storage down")}, &fakeInvalidator{})

	_, err := svc.SyncCategories(context.Background())
	assert.Error(t, err)
}

func TestSyncSubCategories_WalksEveryCategoryFolder(t *testing.T) {
	cat := &fakeCatalog{
		categories: []domain.Category{
			{ID: 1, Name: "music", FolderID: "fold-music"},
			{ID: 2, Name: "books", FolderID: "fold-books"},
		},
		subCategories: []domain.SubCategory{
			{ID: 1, Name: "guitar", Category: "music", FolderID: "fold-guitar"},
		},
	}
	fs := &fakeStorage{folders: map[string][]storage.File{
		"fold-music": {folder("fold-guitar", "guitar"), folder("fold-piano", "piano")},
		"fold-books": {folder("fold-fiction", "fiction")},
	}}
	inv := &fakeInvalidator{}
	svc := newTestService(cat, fs, inv)

	reports, err := svc.SyncSubCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, FolderReport{Folder: "music", Created: 1, Skipped: 1}, reports[0])
	assert.Equal(t, FolderReport{Folder: "books", Created: 1, Skipped: 0}, reports[1])
	assert.Equal(t, []string{"music/piano/fold-piano", "books/fiction/fold-fiction"}, cat.createdSubCategories)
	assert.Equal(t, []string{"sub-categories"}, inv.keys)
}

func TestSyncProducts_CreatesDraftsForNewFiles(t *testing.T) {
	cat := &fakeCatalog{
		subCategories: []domain.SubCategory{
			{ID: 1, Name: "guitar", Category: "music", FolderID: "fold-guitar"},
		},
		products: map[string]*domain.Product{
			"file-old": {ID: 9, FileID: "file-old"},
		},
	}
	fs := &fakeStorage{folders: map[string][]storage.File{
		"fold-guitar": {
			file("file-old", "scales.pdf"),
			file("file-new", "chords.pdf"),
			folder("fold-nested", "nested"),
		},
	}}
	inv := &fakeInvalidator{}
	svc := newTestService(cat, fs, inv)

	reports, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, FolderReport{Folder: "guitar", Created: 1, Skipped: 1}, reports[0])
	assert.Equal(t, []string{"music/guitar/chords/file-new"}, cat.createdProducts)
	assert.Equal(t, []string{"products"}, inv.keys)
}

func TestSyncProducts_SubCategoryWithoutFolderIgnored(t *testing.T) {
	cat := &fakeCatalog{
		subCategories: []domain.SubCategory{{ID: 1, Name: "legacy", Category: "music"}},
	}
	inv := &fakeInvalidator{}
	svc := newTestService(cat, &fakeStorage{}, inv)

	reports, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Empty(t, inv.keys)
}

func TestProductName_StripsExtension(t *testing.T) {
	assert.Equal(t, "guitar-course", productName("guitar-course.pdf"))
	assert.Equal(t, "no-extension", productName("no-extension"))
	assert.Equal(t, "archive.tar", productName("archive.tar.gz"))
}
