package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_report/pkg/models"
)

func sampleReport(id string) *models.StoredReport {
	return &models.StoredReport{
		ID:        id,
		Company:   "Acme Sdn Bhd",
		SchemaTag: "v7.7",
		Document:  []byte(`{"company_info":{"company_name":"Acme Sdn Bhd"}}`),
		Warnings:  []string{"FY2024: Balance Sheet variance"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, fc.Save(ctx, sampleReport("r1")))
	got, err := fc.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Sdn Bhd", got.Company)
	assert.JSONEq(t, `{"company_info":{"company_name":"Acme Sdn Bhd"}}`, string(got.Document))
	assert.Equal(t, []string{"FY2024: Balance Sheet variance"}, got.Warnings)

	_, err = fc.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fc.Load(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, fc.Save(ctx, sampleReport("a/b")))
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fc, err := NewFileCache(dir, time.Hour)
	require.NoError(t, err)

	old := sampleReport("old")
	old.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, fc.Save(ctx, old))
	require.NoError(t, fc.Save(ctx, sampleReport("fresh")))

	_, err = fc.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	stale := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), stale, stale))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), stale, stale))

	n, err := fc.Purge(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(dir, "old.json"))
	assert.FileExists(t, filepath.Join(dir, "fresh.json"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(time.Minute)
	_, err := m.Load(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, sampleReport("r1")))
	got, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, 1, m.Len())
}

type failingStore struct{}

func (failingStore) Save(context.Context, *models.StoredReport) error {
	return errors.New("connection refused")
}
func (failingStore) Load(context.Context, string) (*models.StoredReport, error) {
	return nil, errors.New("connection refused")
}

func TestVaultFallsBackToFiles(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir(), 0)
	require.NoError(t, err)
	v := &Vault{Memory: NewMemoryCache(time.Minute), DB: failingStore{}, Files: fc}

	require.NoError(t, v.Save(ctx, sampleReport("r1")))

	// a cold memory layer is warmed from the file cache
	v.Memory = NewMemoryCache(time.Minute)
	got, err := v.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "v7.7", got.SchemaTag)
	assert.Equal(t, 1, v.Memory.Len())

	_, err = v.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVaultSaveFailsWhenNothingPersists(t *testing.T) {
	v := &Vault{Memory: NewMemoryCache(time.Minute), DB: failingStore{}}
	err := v.Save(context.Background(), sampleReport("r1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_SAVE_FAILED")
	assert.Contains(t, err.Error(), "connection refused")
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3ArchivePut(t *testing.T) {
	fake := &fakeS3{}
	a := &S3Archive{client: fake, bucket: "kreditlab-reports"}

	key, err := a.Put(context.Background(), "r1", "source.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "reports/r1/source.pdf", key)
	assert.Equal(t, "kreditlab-reports", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("%PDF-1.4"), fake.body)

	fake.err = errors.New("access denied")
	_, err = a.Put(context.Background(), "r1", "report.json", nil)
	assert.ErrorContains(t, err, "failed to upload to S3")
}

func TestNewS3ArchiveRequiresBucket(t *testing.T) {
	_, err := NewS3Archive(context.Background(), ArchiveConfig{})
	assert.EqualError(t, err, "ARCHIVE_BUCKET not set")
}
