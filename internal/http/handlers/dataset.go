package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tabula-backend/internal/http/response"
	"github.com/yungbote/tabula-backend/internal/platform/apierr"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
	"github.com/yungbote/tabula-backend/internal/services"
)

// multipartOverhead is headroom for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

type DatasetHandler struct {
	log            *logger.Logger
	datasetService services.DatasetService
	maxUploadBytes int64
}

func NewDatasetHandler(log *logger.Logger, datasetService services.DatasetService, maxUploadBytes int64) *DatasetHandler {
	return &DatasetHandler{
		log:            log.With("handler", "DatasetHandler"),
		datasetService: datasetService,
		maxUploadBytes: maxUploadBytes,
	}
}

// POST /api/data/upload
func (h *DatasetHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		switch {
		case isBodyTooLarge(err):
			response.RespondAPIError(c, apierr.TooLarge("file_too_large", "File exceeds the %d byte upload limit", h.maxUploadBytes))
		case hasEmptyFilePart(c.Request.MultipartForm):
			response.RespondAPIError(c, apierr.BadRequest("no_selected_file", "No selected file"))
		default:
			response.RespondAPIError(c, apierr.BadRequest("no_file_part", "No file part"))
		}
		return
	}
	body, err := h.readFile(fh)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	res, err := h.datasetService.Upload(c.Request.Context(), services.UploadInput{
		Filename: fh.Filename,
		Body:     body,
		Replace:  parseBool(c.PostForm("replace")) || parseBool(c.Query("replace")),
	})
	if err != nil {
		h.log.Warn("Upload failed", "filename", fh.Filename, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/data/aggregate
func (h *DatasetHandler) Aggregate(c *gin.Context) {
	res, err := h.datasetService.Aggregate(c.Request.Context(), services.AggregateQuery{
		Filename:  c.Query("filename"),
		Column:    c.Query("column"),
		Operation: c.Query("operation"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{string(res.Operation): res.Value})
}

// GET /api/data/filter
func (h *DatasetHandler) Filter(c *gin.Context) {
	rows, err := h.datasetService.Filter(c.Request.Context(), services.FilterQuery{
		Filename: c.Query("filename"),
		Column:   c.Query("column"),
		Value:    c.Query("value"),
		Operator: c.Query("operator"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/data/datasets
func (h *DatasetHandler) List(c *gin.Context) {
	out, err := h.datasetService.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/data/schema
func (h *DatasetHandler) Schema(c *gin.Context) {
	out, err := h.datasetService.Schema(c.Request.Context(), c.Query("filename"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *DatasetHandler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		// One byte past the limit lets the service reject oversize files.
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return body, nil
}

// hasEmptyFilePart reports a "file" part sent without a filename, which the
// multipart reader files under values instead of files.
func hasEmptyFilePart(form *multipart.Form) bool {
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
