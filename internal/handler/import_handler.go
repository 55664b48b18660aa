package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/pkg/errcode"
	"github.com/xxxsen/mdkeep/internal/pkg/response"
	"github.com/xxxsen/mdkeep/internal/runcache"
	"github.com/xxxsen/mdkeep/internal/runlog"
	"github.com/xxxsen/mdkeep/internal/service"
	"github.com/xxxsen/mdkeep/internal/source"
)

type ImportHandler struct {
	imports       *service.ImportService
	creds         *service.CredentialService
	runs          *runcache.Cache
	maxUploadSize int64
}

func NewImportHandler(imports *service.ImportService, creds *service.CredentialService, runs *runcache.Cache, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{imports: imports, creds: creds, runs: runs, maxUploadSize: maxUploadSize}
}

// Import runs one batch from a multipart form: repeated "files" parts plus "base_url"
// and "api_key" fields. Stored credentials are used only when the form gives neither
// field; a form base_url always needs its own api_key.
func (h *ImportHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form required")
		return
	}
	headers := form.File["files"]
	for _, fh := range headers {
		if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
			response.Error(c, errcode.ErrInvalidFile, fh.Filename+" too large (max "+formatUploadLimit(h.maxUploadSize)+")")
			return
		}
	}
	creds := service.Credentials{
		APIBaseURL: c.PostForm("base_url"),
		APIKey:     c.PostForm("api_key"),
	}
	if creds.IsEmpty() && h.creds != nil {
		stored, err := h.creds.Load(ctx)
		if err != nil {
			logutil.GetLogger(ctx).Warn("load stored credentials failed", zap.Error(err))
		}
		creds = stored
	}

	mem := runlog.NewMemory()
	sink := runlog.Multi(mem, runlog.Zap(ctx, zap.String("request_id", getRequestID(c))))
	summary, err := h.imports.Run(ctx, service.RunContext{
		APIBaseURL: creds.APIBaseURL,
		APIKey:     creds.APIKey,
		Sink:       sink,
	}, source.Uploaded(headers))
	if summary == nil {
		handleError(c, err)
		return
	}
	rec := &runcache.Record{
		RunID:   summary.RunID,
		Summary: summary,
		Logs:    mem.Entries(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	h.runs.Put(ctx, rec)
	response.Success(c, rec)
}

func (h *ImportHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")
	if runID == "" {
		response.Error(c, errcode.ErrInvalid, "run_id required")
		return
	}
	rec, ok := h.runs.Get(runID)
	if !ok {
		response.Error(c, errcode.ErrNotFound, "run not found")
		return
	}
	response.Success(c, rec)
}
