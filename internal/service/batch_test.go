package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

type BatchCoordinatorTestSuite struct {
	suite.Suite
	mockIssuer   *mockCodeIssuer
	mockRenderer *mockRenderer
	mockTables   *mockTableRepository
	coordinator  *BatchCoordinator
	ctx          context.Context
}

func (s *BatchCoordinatorTestSuite) SetupTest() {
	s.mockIssuer = new(mockCodeIssuer)
	s.mockRenderer = new(mockRenderer)
	s.mockTables = new(mockTableRepository)
	s.coordinator = NewBatchCoordinator(s.mockIssuer, s.mockRenderer, s.mockTables, BatchConfig{
		Concurrency: 4,
		ItemTimeout: time.Second,
	}, logger.NewNop())
	s.ctx = context.Background()
}

func TestBatchCoordinator(t *testing.T) {
	suite.Run(t, new(BatchCoordinatorTestSuite))
}

func code(id, name string) *domain.TableCode {
	return &domain.TableCode{TableID: id, TableName: name, URL: "https://menu.example.com/qr/" + id, TokenVersion: 1}
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_PartialFailure() {
	// Arrange
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "t1").Return(code("t1", "One"), nil)
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "missing").Return(nil, domain.ErrTableNotFound)
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "t3").Return(code("t3", "Three"), nil)

	// Act
	result, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1", "missing", "t3"}})

	// Assert
	s.Require().NoError(err)
	s.Equal([]string{"t1", "t3"}, result.SucceededIDs)
	s.Equal([]string{"missing"}, result.FailedIDs)
	s.Equal(2, result.SuccessCount)
	s.Equal(1, result.FailedCount)
	s.Equal([]domain.BatchItemFailure{{TableID: "missing", Code: CodeTableNotFound}}, result.Failures)
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_PreservesInputOrderAndDedupes() {
	ids := []string{"t5", "t2", "t9", "t2", "t1", "t7", "t5"}
	for _, id := range []string{"t5", "t2", "t9", "t1", "t7"} {
		s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", id).Return(code(id, id), nil).Once()
	}

	result, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: ids})

	s.Require().NoError(err)
	s.Equal([]string{"t5", "t2", "t9", "t1", "t7"}, result.SucceededIDs)
	s.Empty(result.FailedIDs)
	s.mockIssuer.AssertExpectations(s.T())
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_SlowItemTimesOutAlone() {
	// Arrange
	s.coordinator.itemTimeout = 50 * time.Millisecond
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "slow").
		Run(func(args mock.Arguments) { time.Sleep(500 * time.Millisecond) }).
		Return(code("slow", "Slow"), nil)
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "fast").Return(code("fast", "Fast"), nil)

	// Act
	start := time.Now()
	result, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"slow", "fast"}})

	// Assert
	s.Require().NoError(err)
	s.Less(time.Since(start), 400*time.Millisecond)
	s.Equal([]string{"fast"}, result.SucceededIDs)
	s.Equal([]domain.BatchItemFailure{{TableID: "slow", Code: CodeTimeout}}, result.Failures)
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_RespectsConcurrencyLimit() {
	s.coordinator.concurrency = 2
	var inFlight, peak int64
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", mock.Anything).
		Run(func(args mock.Arguments) {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
		}).
		Return(code("x", "x"), nil)

	_, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"a", "b", "c", "d", "e", "f"}})

	s.Require().NoError(err)
	s.LessOrEqual(atomic.LoadInt64(&peak), int64(2))
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_FilterSelection() {
	floor := 2
	s.mockTables.On("ListIDs", s.ctx, domain.TableFilter{TenantID: "tenant-a", Floor: &floor, ActiveOnly: true}).
		Return([]string{"t4", "t6"}, nil)
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "t4").Return(code("t4", "Four"), nil)
	s.mockIssuer.On("IssueNew", mock.Anything, "tenant-a", "t6").Return(code("t6", "Six"), nil)

	result, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{Floor: &floor, ActiveOnly: true})

	s.Require().NoError(err)
	s.Equal([]string{"t4", "t6"}, result.SucceededIDs)
}

func (s *BatchCoordinatorTestSuite) TestRegenerateMany_BadSelection() {
	_, err := s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{})
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{" ", ""}})
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.coordinator.RegenerateMany(s.ctx, "", TableSelection{TableIDs: []string{"t1"}})
	s.ErrorIs(err, domain.ErrInvalidInput)

	tooMany := make([]string, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("t%d", i)
	}
	_, err = s.coordinator.RegenerateMany(s.ctx, "tenant-a", TableSelection{TableIDs: tooMany})
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_ZipPNG() {
	// Arrange
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t1").Return(code("t1", "Window 1"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t2").Return(nil, domain.ErrTableNotFound)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t3").Return(code("t3", "Bar/3"), nil)
	s.mockRenderer.On("ToRaster", "https://menu.example.com/qr/t1", render.SizeDownload).Return([]byte("png-1"), nil)
	s.mockRenderer.On("ToRaster", "https://menu.example.com/qr/t3", render.SizeDownload).Return([]byte("png-3"), nil)

	// Act
	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1", "t2", "t3"}}, domain.BatchFormatZipPNG)

	// Assert
	s.Require().NoError(err)
	s.Equal([]string{"t1", "t3"}, download.Result.SucceededIDs)
	s.Equal([]string{"t2"}, download.Result.FailedIDs)
	s.Require().NotNil(download.File)
	s.Equal("table-qr-codes.zip", download.File.Name)
	s.Equal("application/zip", download.File.MimeType)

	zr, err := zip.NewReader(bytes.NewReader(download.File.Data), int64(len(download.File.Data)))
	s.Require().NoError(err)
	s.Require().Len(zr.File, 2)
	s.Equal("Window-1_t1.png", zr.File[0].Name)
	s.Equal("Bar-3_t3.png", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	s.Require().NoError(err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	s.Equal("png-3", string(data))
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_ZipEntryNamesStayUnique() {
	// Arrange: both IDs sanitize to "t-1"
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t 1").Return(code("t 1", "Window"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t-1").Return(code("t-1", "Window"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t/1").Return(code("t/1", "Window"), nil)
	s.mockRenderer.On("ToRaster", mock.Anything, render.SizeDownload).Return([]byte("png"), nil)

	// Act
	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t 1", "t-1", "t/1"}}, domain.BatchFormatZipPNG)

	// Assert
	s.Require().NoError(err)
	s.Require().NotNil(download.File)
	zr, err := zip.NewReader(bytes.NewReader(download.File.Data), int64(len(download.File.Data)))
	s.Require().NoError(err)
	s.Require().Len(zr.File, 3)
	s.Equal("Window_t-1.png", zr.File[0].Name)
	s.Equal("Window_t-1-2.png", zr.File[1].Name)
	s.Equal("Window_t-1-3.png", zr.File[2].Name)
}

func TestUniqueEntryName(t *testing.T) {
	used := map[string]bool{}

	assert.Equal(t, "a.png", uniqueEntryName(used, "a.png"))
	assert.Equal(t, "a-2.png", uniqueEntryName(used, "a.png"))
	assert.Equal(t, "a-2-2.png", uniqueEntryName(used, "a-2.png"))
	assert.Equal(t, "a-3.png", uniqueEntryName(used, "a.png"))
	assert.Equal(t, "noext", uniqueEntryName(used, "noext"))
	assert.Equal(t, "noext-2", uniqueEntryName(used, "noext"))
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_ZipPDFRenderFailureIsPerItem() {
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t1").Return(code("t1", "One"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t2").Return(code("t2", "Two"), nil)
	s.mockRenderer.On("ToDocument", "https://menu.example.com/qr/t1", "One").Return(nil, domain.ErrRenderFailed)
	s.mockRenderer.On("ToDocument", "https://menu.example.com/qr/t2", "Two").Return([]byte("%PDF-2"), nil)

	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1", "t2"}}, domain.BatchFormatZipPDF)

	s.Require().NoError(err)
	s.Equal([]string{"t2"}, download.Result.SucceededIDs)
	s.Equal([]domain.BatchItemFailure{{TableID: "t1", Code: CodeRenderFailed}}, download.Result.Failures)
	s.NotNil(download.File)
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_CombinedPDFFollowsInputOrder() {
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t3").Return(code("t3", "Three"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t1").Return(code("t1", "One"), nil)
	s.mockRenderer.On("ToCombinedDocument", []render.DocumentPage{
		{URL: "https://menu.example.com/qr/t3", Label: "Three"},
		{URL: "https://menu.example.com/qr/t1", Label: "One"},
	}).Return([]byte("%PDF-combined"), nil)

	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t3", "t1"}}, domain.BatchFormatCombinedPDF)

	s.Require().NoError(err)
	s.Equal("table-qr-codes.pdf", download.File.Name)
	s.Equal("application/pdf", download.File.MimeType)
	s.Equal([]byte("%PDF-combined"), download.File.Data)
	s.mockRenderer.AssertExpectations(s.T())
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_CombinedRenderFailureFailsEveryItem() {
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t1").Return(code("t1", "One"), nil)
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t2").Return(nil, domain.ErrTableNotFound)
	s.mockRenderer.On("ToCombinedDocument", mock.Anything).Return(nil, domain.ErrRenderFailed)

	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1", "t2"}}, domain.BatchFormatCombinedPDF)

	s.Require().NoError(err)
	s.Nil(download.File)
	s.Equal([]string{"t1", "t2"}, download.Result.FailedIDs)
	s.Equal([]domain.BatchItemFailure{
		{TableID: "t1", Code: CodeRenderFailed},
		{TableID: "t2", Code: CodeTableNotFound},
	}, download.Result.Failures)
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_NothingRendered() {
	s.mockIssuer.On("IssueCurrent", mock.Anything, "tenant-a", "t1").Return(nil, domain.ErrTableNotFound)

	download, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1"}}, domain.BatchFormatZipPNG)

	s.Require().NoError(err)
	s.Nil(download.File)
	s.Equal(1, download.Result.FailedCount)
}

func (s *BatchCoordinatorTestSuite) TestDownloadMany_RejectsUnknownFormat() {
	_, err := s.coordinator.DownloadMany(s.ctx, "tenant-a", TableSelection{TableIDs: []string{"t1"}}, "tar")

	s.ErrorIs(err, domain.ErrInvalidInput)
	s.mockIssuer.AssertNotCalled(s.T(), "IssueCurrent", mock.Anything, mock.Anything, mock.Anything)
}
