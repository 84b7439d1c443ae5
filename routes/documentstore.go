package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"docstore-platform/internal/config"
	"docstore-platform/internal/logger"
	"docstore-platform/internal/queue"
	"docstore-platform/services"
	"docstore-platform/utils"
)

// DocumentStoreHandler bundles the dependencies of the document store API.
type DocumentStoreHandler struct {
	Cfg   *config.Config
	Docs  *services.DocumentStoreService
	Index *services.VectorIndexService
	Queue *asynq.Client
}

type storeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	WorkspaceID string `json:"workspaceId"`
}

type chunkEditRequest struct {
	PageContent string `json:"pageContent"`
	Metadata    string `json:"metadata"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type usageRequest struct {
	UsedBy   string   `json:"usedBy"`
	StoreIDs []string `json:"storeIds"`
}

type processRequest struct {
	services.LoaderRequest
	ChatID string `json:"chatId,omitempty"`
}

func SetupDocumentStoreRoutes(router *gin.Engine, h *DocumentStoreHandler) {
	api := router.Group("/api/v1/document-stores")

	api.POST("", h.createStore)
	api.GET("", h.listStores)
	api.GET("/:id", h.getStore)
	api.PUT("/:id", h.updateStore)
	api.DELETE("/:id", h.deleteStore)

	api.POST("/:id/loaders/preview", h.previewLoader)
	api.POST("/:id/loaders/process", h.processLoader)
	api.DELETE("/:id/loaders/:loaderId", h.deleteLoader)
	api.POST("/:id/refresh", h.refreshStore)

	api.GET("/:id/chunks/:docId", h.getChunks)
	api.PUT("/:id/chunks/:docId/:chunkId", h.editChunk)
	api.DELETE("/:id/chunks/:docId/:chunkId", h.deleteChunk)

	api.POST("/:id/config", h.saveConfig)
	api.POST("/:id/upsert", h.upsert)
	api.POST("/:id/query", h.query)
	api.DELETE("/:id/vector-data", h.deleteIndexed)
	api.GET("/:id/history", h.history)

	api.POST("/usage", h.updateUsage)
}

func (h *DocumentStoreHandler) createStore(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.createDocumentStore - store name is required")
		return
	}
	dto, err := h.Docs.Create(c.Request.Context(), req.Name, req.Description, req.WorkspaceID)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

func (h *DocumentStoreHandler) listStores(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	stores, total, err := h.Docs.List(c.Request.Context(), c.Query("workspaceId"), page, limit)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        stores,
		"total":       total,
		"currentPage": page,
		"pageSize":    limit,
	})
}

func (h *DocumentStoreHandler) getStore(c *gin.Context) {
	dto, err := h.Docs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *DocumentStoreHandler) updateStore(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.updateDocumentStore - request body is required")
		return
	}
	dto, err := h.Docs.Update(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *DocumentStoreHandler) deleteStore(c *gin.Context) {
	if err := h.Docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *DocumentStoreHandler) previewLoader(c *gin.Context) {
	var req services.LoaderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LoaderID == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.previewChunks - loader configuration is required")
		return
	}
	preview, err := h.Docs.PreviewChunks(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// processLoader persists the loader as SYNCING and enqueues the pipeline;
// the response returns immediately, completion is observed by polling status
// or by listening on the event stream.
func (h *DocumentStoreHandler) processLoader(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LoaderID == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.processLoader - loader configuration is required")
		return
	}
	storeID := c.Param("id")

	ldr, err := h.Docs.SaveProcessingLoader(c.Request.Context(), storeID, req.LoaderRequest)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}

	task, err := queue.NewProcessLoaderTask(storeID, ldr.ID, req.ChatID)
	if err != nil {
		utils.RespondWithInternalError(c, err.Error(), nil)
		return
	}
	if _, err := h.Queue.Enqueue(task); err != nil {
		utils.RespondWithInternalError(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"loader": ldr, "status": "SYNCING"})
}

func (h *DocumentStoreHandler) deleteLoader(c *gin.Context) {
	dto, err := h.Docs.DeleteLoader(c.Request.Context(), c.Param("id"), c.Param("loaderId"))
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// refreshStore marks every loader SYNCING and enqueues one processing task
// per loader.
func (h *DocumentStoreHandler) refreshStore(c *gin.Context) {
	storeID := c.Param("id")
	loaderIDs, err := h.Docs.Refresh(c.Request.Context(), storeID)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	for _, loaderID := range loaderIDs {
		task, err := queue.NewProcessLoaderTask(storeID, loaderID, "")
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		if _, err := h.Queue.Enqueue(task); err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
	}
	c.JSON(http.StatusAccepted, gin.H{"loaders": loaderIDs, "status": "SYNCING"})
}

func (h *DocumentStoreHandler) getChunks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	chunks, err := h.Docs.GetChunks(c.Request.Context(), c.Param("id"), c.Param("docId"), page)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chunks)
}

func (h *DocumentStoreHandler) editChunk(c *gin.Context) {
	var req chunkEditRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PageContent == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.editDocumentStoreFileChunk - page content is required")
		return
	}
	chunk, err := h.Docs.EditChunk(c.Request.Context(), c.Param("id"), c.Param("docId"), c.Param("chunkId"), req.PageContent, req.Metadata)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

func (h *DocumentStoreHandler) deleteChunk(c *gin.Context) {
	if err := h.Docs.DeleteChunk(c.Request.Context(), c.Param("id"), c.Param("docId"), c.Param("chunkId")); err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *DocumentStoreHandler) saveConfig(c *gin.Context) {
	var req services.IndexConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.saveVectorStoreConfig - request body is required")
		return
	}
	strict := c.DefaultQuery("strict", "true") != "false"
	dto, err := h.Index.SaveConfig(c.Request.Context(), c.Param("id"), req, strict)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *DocumentStoreHandler) upsert(c *gin.Context) {
	storeID := c.Param("id")

	if c.Query("async") == "true" {
		var body struct {
			ChatID string `json:"chatId,omitempty"`
		}
		_ = c.ShouldBindJSON(&body)
		task, err := queue.NewUpsertStoreTask(storeID, body.ChatID)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		if _, err := h.Queue.Enqueue(task); err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "UPSERTING"})
		return
	}

	result, err := h.Index.Upsert(c.Request.Context(), storeID)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.Stripped())
}

func (h *DocumentStoreHandler) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.queryVectorStore - query is required")
		return
	}
	resp, err := h.Index.Query(c.Request.Context(), c.Param("id"), req.Query, req.TopK)
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentStoreHandler) deleteIndexed(c *gin.Context) {
	if err := h.Index.DeleteIndexed(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *DocumentStoreHandler) history(c *gin.Context) {
	records, err := h.Index.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *DocumentStoreHandler) updateUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UsedBy == "" {
		utils.RespondWithPreconditionFailed(c, "Error: documentStoreServices.updateDocumentStoreUsage - usedBy is required")
		return
	}
	if err := h.Docs.UpdateUsage(c.Request.Context(), req.UsedBy, req.StoreIDs); err != nil {
		utils.RespondWithServiceError(c, err)
		return
	}
	logger.Debug("Reconciled document store usage", "usedBy", req.UsedBy, "stores", len(req.StoreIDs))
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
