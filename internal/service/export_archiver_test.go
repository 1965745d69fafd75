package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/port"
	"gstfiling/internal/service"
	"gstfiling/mocks"
)

func readyToExport(t *testing.T, m *filing.Machine) *domain.Filing {
	t.Helper()
	f := summaryValidated(t, m)
	out, _ := m.PreparePreview(f, nil)
	require.True(t, out.Accepted, "%v", out.Errors.Codes())
	return out.Filing
}

func TestExportArchiver_UploadsBundleAndCSV(t *testing.T) {
	fx := newFixture()
	f := readyToExport(t, fx.machine)
	_, bundle := fx.machine.Export(f)
	require.NotNil(t, bundle)

	store := new(mocks.MockObjectStorage)
	var bodies []string
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "gst-exports" && strings.HasPrefix(in.Key, "exports/"+filer+"/06-2025/")
	})).Run(func(args mock.Arguments) {
		raw, _ := io.ReadAll(args.Get(1).(port.UploadInput).Body)
		bodies = append(bodies, string(raw))
	}).Return(&port.UploadOutput{}, nil)
	store.On("GetPresignedURL", mock.Anything, "gst-exports", mock.Anything, int64(600)).Return("https://signed", nil)

	objects, err := service.NewExportArchiver(store, "gst-exports", 600, zerolog.Nop()).Archive(context.Background(), f, bundle)

	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.True(t, strings.HasSuffix(objects[0].Key, "/bundle.json"))
	assert.True(t, strings.HasSuffix(objects[1].Key, "/"+filer+"_06-2025_detailed.csv"))
	assert.Equal(t, "https://signed", objects[1].URL)
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], `"detailed_return"`)
	assert.Contains(t, bodies[1], "INV-001")
}

func TestExportArchiver_UploadFailure(t *testing.T) {
	fx := newFixture()
	f := readyToExport(t, fx.machine)
	_, bundle := fx.machine.Export(f)

	store := new(mocks.MockObjectStorage)
	store.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("bucket gone"))

	objects, err := service.NewExportArchiver(store, "gst-exports", 600, zerolog.Nop()).Archive(context.Background(), f, bundle)

	assert.ErrorContains(t, err, "bucket gone")
	assert.Empty(t, objects)
	store.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExportArchiver_PresignFailureLogged(t *testing.T) {
	fx := newFixture()
	f := readyToExport(t, fx.machine)
	_, bundle := fx.machine.Export(f)

	store := new(mocks.MockObjectStorage)
	store.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	store.On("GetPresignedURL", mock.Anything, "gst-exports", mock.Anything, int64(600)).Return("", errors.New("signer unavailable"))

	var logs bytes.Buffer
	objects, err := service.NewExportArchiver(store, "gst-exports", 600, zerolog.New(&logs)).Archive(context.Background(), f, bundle)

	require.NoError(t, err)
	require.Len(t, objects, 2)
	for _, obj := range objects {
		assert.Empty(t, obj.URL)
	}
	assert.Equal(t, 2, strings.Count(logs.String(), "presigning archived export failed"))
	assert.Contains(t, logs.String(), "signer unavailable")
	assert.Contains(t, logs.String(), objects[0].Key)
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestFilingService_Export_Archives(t *testing.T) {
	fx := newFixture()
	f := readyToExport(t, fx.machine)
	fx.stored(f, true)
	fx.filings.On("Update", mock.Anything, mock.MatchedBy(func(g *domain.Filing) bool {
		return g.State == domain.StateExported && g.ExportedAt != nil
	})).Return(nil)

	archive := &stubArchiver{objects: []filing.ArchivedObject{{Key: "exports/x/bundle.json"}}}
	svc := service.NewFilingService(fx.machine, fx.tx, archive, zerolog.Nop())

	out, bundle, err := svc.Export(context.Background(), filer, "06-2025")

	require.NoError(t, err)
	assert.True(t, out.Accepted)
	require.NotNil(t, bundle)
	assert.Equal(t, archive.objects, bundle.Archived)
	assert.Equal(t, 1, archive.calls)
}

func TestFilingService_Export_ArchiveFailureKeepsExport(t *testing.T) {
	fx := newFixture()
	f := readyToExport(t, fx.machine)
	fx.stored(f, true)
	fx.filings.On("Update", mock.Anything, mock.Anything).Return(nil)

	archive := &stubArchiver{err: errors.New("unreachable")}
	svc := service.NewFilingService(fx.machine, fx.tx, archive, zerolog.Nop())

	out, bundle, err := svc.Export(context.Background(), filer, "06-2025")

	require.NoError(t, err)
	assert.True(t, out.Accepted)
	require.NotNil(t, bundle)
	assert.Empty(t, bundle.Archived)
}

type stubArchiver struct {
	objects []filing.ArchivedObject
	err     error
	calls   int
}

func (s *stubArchiver) Archive(context.Context, *domain.Filing, *filing.ExportBundle) ([]filing.ArchivedObject, error) {
	s.calls++
	return s.objects, s.err
}
