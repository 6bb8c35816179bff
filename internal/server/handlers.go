package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Pages  int    `json:"pages"`
}

// CreatePageRequest is the request body for POST /api/v1/pages.
type CreatePageRequest struct {
	URL string `json:"url"`
}

// PageResponse describes a page session.
type PageResponse struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	CreatedAt time.Time       `json:"created_at"`
	Status    pipeline.Status `json:"status"`
}

// ElementRequest describes the element a signal fired on.
type ElementRequest struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// SignalRequest is the request body for POST /api/v1/pages/:id/signals.
// Immediate skips the debounce and waits for the conversion.
type SignalRequest struct {
	Kind      pipeline.SignalKind `json:"kind"`
	Key       string              `json:"key"`
	Element   ElementRequest      `json:"element"`
	Text      string              `json:"text"`
	Anchor    tooltip.Rect        `json:"anchor"`
	Immediate bool                `json:"immediate,omitempty"`
}

// SignalResponse reports the element's state after a signal.
type SignalResponse struct {
	State      string           `json:"state"`
	Suppressed bool             `json:"suppressed"`
	Tooltip    *TooltipResponse `json:"tooltip,omitempty"`
}

// TooltipResponse is the page's current tooltip.
type TooltipResponse struct {
	Visible  bool             `json:"visible"`
	Anchor   *tooltip.Rect    `json:"anchor,omitempty"`
	Content  *tooltip.Content `json:"content,omitempty"`
	Rendered string           `json:"rendered,omitempty"`
}

// ConvertRequest is the request body for POST /api/v1/convert. Empty
// fields fall back to stored settings.
type ConvertRequest struct {
	Text          string   `json:"text"`
	FromCurrency  string   `json:"fromCurrency,omitempty"`
	ToCurrency    string   `json:"toCurrency,omitempty"`
	ProcessingFee *bool    `json:"processingFee,omitempty"`
	Tariff        *bool    `json:"tariff,omitempty"`
	TariffPercent *float64 `json:"tariffPercentage,omitempty"`
}

// ConvertResponse is the response body for POST /api/v1/convert.
type ConvertResponse struct {
	Result  models.ConversionResult `json:"result"`
	Tooltip tooltip.Content         `json:"tooltip"`
}

func (s *Server) handleHealth(c echo.Context) error {
	s.mu.Lock()
	n := len(s.pages)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Pages: n})
}

func (s *Server) handleCreatePage(c echo.Context) error {
	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url field is required")
	}

	p, err := s.openPage(c.Request().Context(), req.URL)
	if err != nil {
		s.logger.Error("failed to open page", zap.String("url", req.URL), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open page")
	}
	s.logger.Info("page opened", zap.String("id", p.id), zap.String("url", p.url))
	return c.JSON(http.StatusCreated, s.describe(p))
}

func (s *Server) handleGetPage(c echo.Context) error {
	p, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.describe(p))
}

func (s *Server) handleDeletePage(c echo.Context) error {
	p, err := s.lookup(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.pages, p.id)
	s.mu.Unlock()

	p.close()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSignal(c echo.Context) error {
	p, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req SignalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key field is required")
	}

	key := pipeline.ElementKey(req.Key)
	el := classifier.Static{Tag: req.Element.Tag, Attrs: req.Element.Attrs}
	resp := SignalResponse{}

	if req.Immediate && req.Kind != pipeline.SignalBlur {
		if len(p.pipeline.Rescan([]classifier.ElementDescriptor{el})) == 1 {
			p.pipeline.ProcessText(key, req.Text, req.Anchor)
			p.pipeline.Wait()
			if err := p.flush(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "page closed")
			}
		}
		t := tooltipOf(p)
		resp.Tooltip = &t
	} else {
		p.pipeline.HandleSignal(pipeline.Signal{
			Kind:    req.Kind,
			Key:     key,
			Element: el,
			Text:    pipeline.StaticText(req.Text),
			Anchor:  req.Anchor,
		})
	}

	resp.State = p.pipeline.State(key).String()
	resp.Suppressed = p.pipeline.Suppressed()
	return c.JSON(http.StatusOK, resp)
}

// handleMessage routes rate messages to the rate service and everything
// else to the page.
func (s *Server) handleMessage(c echo.Context) error {
	p, err := s.lookup(c)
	if err != nil {
		return err
	}
	var msg models.Message
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var ack models.Ack
	switch msg.Action {
	case models.ActionConvertCurrency, models.ActionGetExchangeRate:
		ack = s.rates.Handle(c.Request().Context(), msg)
	default:
		ack = p.pipeline.Handle(msg)
	}
	return c.JSON(http.StatusOK, ack)
}

func (s *Server) handleTooltip(c echo.Context) error {
	p, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tooltipOf(p))
}

func (s *Server) handleConvert(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	st, _, err := s.settings.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load settings", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load settings")
	}
	if req.FromCurrency != "" {
		st.FromCurrency = strings.ToUpper(strings.TrimSpace(req.FromCurrency))
	}
	if req.ToCurrency != "" {
		st.ToCurrency = strings.ToUpper(strings.TrimSpace(req.ToCurrency))
	}
	if req.ProcessingFee != nil {
		st.ProcessingFeeEnabled = *req.ProcessingFee
	}
	if req.Tariff != nil {
		st.TariffEnabled = *req.Tariff
	}
	if req.TariffPercent != nil {
		st.TariffPercentage = *req.TariffPercent
	}

	res, err := pipeline.Convert(ctx, s.rates, st, req.Text)
	switch {
	case errors.Is(err, pipeline.ErrNoAmount):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no amount found in text")
	case err != nil:
		s.logger.Warn("conversion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, ConvertResponse{Result: res, Tooltip: tooltip.Compose(res)})
}

func (s *Server) handleRate(c echo.Context) error {
	q, err := s.rates.GetRate(c.Request().Context(), c.Param("from"), c.Param("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

func (s *Server) describe(p *page) PageResponse {
	ack := p.pipeline.Handle(models.Message{Action: models.ActionPing})
	status, _ := ack.Data.(pipeline.Status)
	return PageResponse{ID: p.id, URL: p.url, CreatedAt: p.created, Status: status}
}

func tooltipOf(p *page) TooltipResponse {
	ev, visible := p.view.Current()
	if !visible {
		return TooltipResponse{}
	}
	return TooltipResponse{
		Visible:  true,
		Anchor:   &ev.Anchor,
		Content:  &ev.Content,
		Rendered: ev.Content.String(),
	}
}
