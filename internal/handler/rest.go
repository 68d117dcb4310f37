package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/export"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// filterParam is the query parameter carrying the filter text.
const filterParam = "q"

// maxImportSize bounds the body of an import request.
const maxImportSize = 4 << 20

// Request errors.
var (
	ErrInvalidID       = errors.New("invalid item ID")
	ErrInvalidFileName = errors.New("invalid export file name")
	ErrExportDisabled  = errors.New("server-side export is disabled")
)

// RESTHandler handles REST API requests for the inventory.
type RESTHandler struct {
	store     store.Store
	notifier  Notifier
	exportDir string
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. notifier may be nil.
// An empty exportDir disables server-side export.
func NewRESTHandler(s store.Store, notifier Notifier, exportDir string, logger *zap.Logger) *RESTHandler {
	recordInventory(s)

	return &RESTHandler{
		store:     s,
		notifier:  notifier,
		exportDir: exportDir,
		logger:    logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/categories", h.ListCategories).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/total", h.Total).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/export", h.DownloadExport).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/export", h.SaveExport).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/import", h.ImportItems).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(HealthResponse{
		Status:  "healthy",
		Version: Version,
		Items:   h.store.Len(),
	}))
}

// ListCategories handles GET /api/v1/categories requests.
func (h *RESTHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.Categories()))
}

// ListItems handles GET /api/v1/items?q= requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get(filterParam)

	page := model.NewInventoryPage(filter, h.store.List(filter))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(page))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.handleError(w, err, "get item")
		return
	}

	item, err := h.store.Get(id)
	if err != nil {
		h.handleError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.NewItemView(item)))
}

// CreateItem handles POST /api/v1/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Add(input)
	inventoryMutations.WithLabelValues("create", resultLabel(err)).Inc()
	if err != nil {
		h.handleError(w, err, "create item")
		return
	}

	h.logger.Info("item created", zap.Int64("id", item.ID), zap.String("name", item.Name), actor(r))
	h.changed(model.SnapshotReasonCreated)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(model.NewItemView(item)))
}

// UpdateItem handles PUT /api/v1/items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.handleError(w, err, "update item")
		return
	}

	var input model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.Update(id, input)
	inventoryMutations.WithLabelValues("update", resultLabel(err)).Inc()
	if err != nil {
		h.handleError(w, err, "update item")
		return
	}

	h.logger.Info("item updated", zap.Int64("id", item.ID), actor(r))
	h.changed(model.SnapshotReasonUpdated)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.NewItemView(item)))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.handleError(w, err, "delete item")
		return
	}

	err = h.store.Remove(id)
	inventoryMutations.WithLabelValues("delete", resultLabel(err)).Inc()
	if err != nil {
		h.handleError(w, err, "delete item")
		return
	}

	h.logger.Info("item deleted", zap.Int64("id", id), actor(r))
	h.changed(model.SnapshotReasonDeleted)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// TotalResponse is the payload of GET /api/v1/total.
type TotalResponse struct {
	Filter string `json:"filter,omitempty"`
	Count  int    `json:"count"`
	Total  string `json:"total"`
}

// Total handles GET /api/v1/total?q= requests.
func (h *RESTHandler) Total(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get(filterParam)

	items := h.store.List(filter)
	response := TotalResponse{
		Filter: filter,
		Count:  len(items),
		Total:  model.FormatAmount(model.TotalOf(items)),
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// DownloadExport handles GET /api/v1/export?q= requests by returning the
// export text of the filtered items as an attachment.
func (h *RESTHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get(filterParam)

	data, err := export.Text(h.store.List(filter))
	inventoryExports.WithLabelValues("download", resultLabel(err)).Inc()
	if err != nil {
		h.handleError(w, err, "export items")
		return
	}

	h.logger.Info("inventory downloaded", zap.String("filter", filter), actor(r))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

// SaveExportRequest is the body of POST /api/v1/export.
type SaveExportRequest struct {
	FileName string `json:"file_name"`
	Filter   string `json:"filter"`
}

// SaveExportResponse reports where the export was written.
type SaveExportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// SaveExport handles POST /api/v1/export requests by writing the export
// to a file inside the configured export directory.
func (h *RESTHandler) SaveExport(w http.ResponseWriter, r *http.Request) {
	if h.exportDir == "" {
		h.handleError(w, ErrExportDisabled, "save export")
		return
	}

	var req SaveExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, err := exportFileName(req.FileName)
	if err != nil {
		h.handleError(w, err, "save export")
		return
	}

	items := h.store.List(req.Filter)
	path := filepath.Join(h.exportDir, name)

	err = export.WriteFile(path, items)
	inventoryExports.WithLabelValues("file", resultLabel(err)).Inc()
	if err != nil {
		h.handleError(w, err, "save export")
		return
	}

	h.logger.Info("inventory exported", zap.String("path", path), zap.Int("count", len(items)), actor(r))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(SaveExportResponse{Path: path, Count: len(items)}))
}

// ImportResponse lists the items created by an import.
type ImportResponse struct {
	Items []model.ItemView `json:"items"`
	Count int              `json:"count"`
}

// ImportItems handles POST /api/v1/import requests. The body is export text;
// every record is added as a new item and receives a fresh id. Records are
// all validated first, so a rejected record leaves the inventory untouched.
func (h *RESTHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	records, err := export.Parse(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		h.logger.Warn("invalid import body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inputs := make([]model.ItemInput, 0, len(records))
	for i, rec := range records {
		input := rec.Input()
		if err := input.Normalize().Validate(); err != nil {
			inventoryMutations.WithLabelValues("import", resultLabel(err)).Inc()
			h.logger.Warn("import rejected", zap.Int("record", i+1), zap.Error(err), actor(r))
			h.writeError(w, http.StatusBadRequest, importRejection(i, err))
			return
		}
		inputs = append(inputs, input)
	}

	created, err := store.Seed(h.store, inputs)
	inventoryMutations.WithLabelValues("import", resultLabel(err)).Inc()
	if len(created) > 0 {
		h.changed(model.SnapshotReasonImported)
	}
	if err != nil {
		h.handleError(w, err, "import items")
		return
	}

	views := make([]model.ItemView, 0, len(created))
	for _, item := range created {
		views = append(views, model.NewItemView(item))
	}

	h.logger.Info("items imported", zap.Int("count", len(views)), actor(r))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(ImportResponse{Items: views, Count: len(views)}))
}

// importRejection names the rejected record by position and by line of the
// export text, whose first line is the header.
func importRejection(index int, err error) string {
	return fmt.Sprintf("record %d (line %d): %s; nothing was imported", index+1, index+2, validationMessage(err))
}

// actor names the authenticated caller for audit log lines.
func actor(r *http.Request) zap.Field {
	if p, ok := auth.FromContext(r.Context()); ok {
		return zap.String("by", p.Subject)
	}
	return zap.String("by", "anonymous")
}

// changed refreshes metrics and notifies viewers after a mutation.
func (h *RESTHandler) changed(reason string) {
	recordInventory(h.store)
	if h.notifier != nil {
		h.notifier.Broadcast(reason)
	}
}

// parseID extracts a positive item id from the route.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// exportFileName validates a client supplied file name. Only plain names
// ending in .csv are accepted.
func exportFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return export.DefaultFileName, nil
	}

	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidFileName
	}

	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", ErrInvalidFileName
	}

	return name, nil
}

// handleError maps domain errors to HTTP responses.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	var ioErr *export.IOError

	switch {
	case errors.Is(err, model.ErrValidation):
		h.logger.Warn("validation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, model.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
	case errors.Is(err, ErrInvalidFileName):
		h.writeError(w, http.StatusBadRequest, "file name must be a plain name ending in .csv")
	case errors.Is(err, model.ErrEmptyExport):
		h.writeError(w, http.StatusConflict, "no items to export")
	case errors.Is(err, ErrExportDisabled):
		h.writeError(w, http.StatusNotImplemented, err.Error())
	case errors.As(err, &ioErr):
		h.logger.Error("export write failed", zap.String("path", ioErr.Path), zap.Error(ioErr.Err))
		h.writeError(w, http.StatusInternalServerError, "export failed: "+ioErr.Err.Error())
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage returns the field-level message without the operation prefix.
func validationMessage(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
