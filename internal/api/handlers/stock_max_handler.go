package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	stockmax "github.com/andresuchdata/stockmax/internal/pipeline/stock_max"
	"github.com/andresuchdata/stockmax/internal/service"
	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type StockMaxHandler struct {
	service        *service.StockMaxService
	maxUploadBytes int64
}

func NewStockMaxHandler(service *service.StockMaxService, maxUploadBytes int64) *StockMaxHandler {
	return &StockMaxHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Compute returns the result table as JSON, or as a file with ?format=csv|xlsx.
func (h *StockMaxHandler) Compute(c *gin.Context) {
	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	switch format {
	case "json":
		resp, err := h.service.Compute(c.Request.Context(), uploads)
		if err != nil {
			h.computeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	case "csv", "xlsx":
		result, err := h.service.Result(c.Request.Context(), uploads)
		if err != nil {
			h.computeError(c, err)
			return
		}
		var buf bytes.Buffer
		name := stockmax.DefaultResultFileName
		contentType := csvContentType
		if format == "xlsx" {
			name = strings.TrimSuffix(name, ".csv") + ".xlsx"
			contentType = xlsxContentType
			err = result.WriteXLSX(&buf)
		} else {
			err = result.WriteCSV(&buf)
		}
		if err != nil {
			logger.Log.Error().Err(err).Str("format", format).Msg("failed to export result")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export result"})
			return
		}
		for _, w := range result.Warnings() {
			c.Writer.Header().Add("X-Stockmax-Warning", w)
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		c.Data(http.StatusOK, contentType, buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, csv or xlsx"})
	}
}

func (h *StockMaxHandler) Report(c *gin.Context) {
	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}
	resp, err := h.service.Report(c.Request.Context(), uploads)
	if err != nil {
		h.computeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockMaxHandler) Topology(c *gin.Context) {
	type warehouse struct {
		Name string `json:"name"`
		Tier string `json:"tier"`
	}
	topology := h.service.Topology()
	out := make([]warehouse, 0, len(topology.Names()))
	for _, w := range topology.Warehouses() {
		out = append(out, warehouse{Name: w.Name, Tier: string(w.Tier)})
	}
	c.JSON(http.StatusOK, gin.H{"central": topology.Central(), "warehouses": out})
}

func (h *StockMaxHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		logger.Log.Error().Err(err).Msg("failed to invalidate result cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache"})
		return
	}
	c.Status(http.StatusNoContent)
}

// readUploads reads one file per table from the multipart fields sales, policy,
// limits and overrides. It writes the error response itself and reports false then.
func (h *StockMaxHandler) readUploads(c *gin.Context) (service.Uploads, bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return nil, false
	}

	uploads := make(service.Uploads, len(pipeline.RequiredTables))
	var missing []string
	for _, table := range pipeline.RequiredTables {
		files := form.File[string(table)]
		if len(files) == 0 {
			missing = append(missing, string(table))
			continue
		}
		data, err := readFormFile(files[0])
		if err != nil {
			logger.Log.Error().Err(err).Str("table", string(table)).Msg("failed to read uploaded file")
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read %s upload", table)})
			return nil, false
		}
		uploads[table] = service.Upload{FileName: files[0].Filename, Data: data}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing input table(s)",
			"missing": missing,
		})
		return nil, false
	}
	return uploads, true
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *StockMaxHandler) computeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stockmax.ErrMissingTable):
		status = http.StatusBadRequest
	case errors.Is(err, stockmax.ErrMissingColumn),
		errors.Is(err, stockmax.ErrUnknownWarehouse),
		errors.Is(err, stockmax.ErrNoPolicyTiers),
		errors.Is(err, stockmax.ErrUnreadableTable),
		errors.Is(err, stockmax.ErrInvalidTopology):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("stock max computation failed")
		c.JSON(status, gin.H{"error": "computation failed"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
