package api

import (
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/config"
	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/admission"
	"github.com/Egham-7/sitegen-mock/internal/services/generations"
	"github.com/Egham-7/sitegen-mock/internal/services/sites"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/delivery"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/handlers"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// SitesHandler serves site descriptors and the paced generation stream
type SitesHandler struct {
	cfg         *config.Config
	requestSvc  *sites.RequestService
	responseSvc *sites.ResponseService
	deliverySvc *delivery.Service
	gate        admission.Gate
	recorder    *generations.Worker
	history     *generations.Service
}

// NewSitesHandler initializes the sites handler with injected dependencies.
// recorder and history are nil when no database is configured.
func NewSitesHandler(
	cfg *config.Config,
	deliverySvc *delivery.Service,
	gate admission.Gate,
	recorder *generations.Worker,
	history *generations.Service,
) *SitesHandler {
	if gate == nil {
		gate = admission.NoopGate{}
	}
	return &SitesHandler{
		cfg:         cfg,
		requestSvc:  sites.NewRequestService(),
		responseSvc: sites.NewResponseService(),
		deliverySvc: deliverySvc,
		gate:        gate,
		recorder:    recorder,
		history:     history,
	}
}

// GetSite returns the templated descriptor of a site
func (h *SitesHandler) GetSite(c *fiber.Ctx) error {
	reqID := h.requestSvc.GetRequestID(c)

	params, err := h.requestSvc.ParseSiteParams(c)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	return h.responseSvc.Success(c, h.responseSvc.BuildSite(params.ID, h.cfg.Stream.DefaultPolicy()))
}

// Generate streams the generated site for :id in paced chunks
func (h *SitesHandler) Generate(c *fiber.Ctx) error {
	reqID := h.requestSvc.GetRequestID(c)
	fiberlog.Infof("[%s] starting site generation stream", reqID)

	params, err := h.requestSvc.ParseSiteParams(c)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	genReq, err := h.requestSvc.ParseGenerateRequest(c)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	policy, err := h.requestSvc.ResolvePolicy(h.cfg.Stream, genReq)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	clientIP := c.IP()
	release, err := h.gate.Acquire(c.UserContext(), clientIP)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	session, err := h.deliverySvc.StartStream(sites.SourceIdentifier(params), policy)
	if err != nil {
		release()
		return h.responseSvc.HandleError(c, err, reqID)
	}

	timeout := h.requestSvc.StreamTimeout(c, h.cfg.Stream.SessionTimeout())
	onFinish := func(summary delivery.Summary, _ error) {
		release()
		h.record(summary, reqID, clientIP)
	}

	if err := handlers.HandleSiteStream(c, session, reqID, timeout, onFinish); err != nil {
		onFinish(session.Summary(), err)
		return h.responseSvc.HandleError(c, err, reqID)
	}

	return nil
}

// ListGenerations returns the recorded sessions of a site, newest first
func (h *SitesHandler) ListGenerations(c *fiber.Ctx) error {
	reqID := h.requestSvc.GetRequestID(c)

	if h.history == nil {
		return h.responseSvc.HandleError(c, models.NewUnavailableError("generation history"), reqID)
	}

	params, err := h.requestSvc.ParseSiteParams(c)
	if err != nil {
		return h.responseSvc.HandleError(c, err, reqID)
	}

	records, err := h.history.ListBySource(c.UserContext(), sites.SourceIdentifier(params), c.QueryInt("limit"))
	if err != nil {
		return h.responseSvc.HandleError(c, fmt.Errorf("list generations: %w", err), reqID)
	}

	return h.responseSvc.Success(c, fiber.Map{
		"site_id":     params.ID,
		"generations": records,
	})
}

// record hands a finished session to the async recorder
func (h *SitesHandler) record(summary delivery.Summary, reqID, clientIP string) {
	if h.recorder == nil {
		return
	}

	params := models.RecordGenerationParams{
		SessionID: summary.SessionID,
		RequestID: reqID,
		SourceID:  summary.Identifier,
		State:     summary.State.String(),
		Chunks:    summary.Chunks,
		Bytes:     summary.Bytes,
		BlockSize: summary.Policy.BlockSize,
		Delay:     summary.Policy.Delay,
		Duration:  summary.Duration,
		IPAddress: clientIP,
	}
	if summary.Err != nil {
		params.ErrorMessage = summary.Err.Error()
	}

	h.recorder.Submit(params, reqID)
}
