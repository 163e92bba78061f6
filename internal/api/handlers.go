package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"internboard/internal/engine"
	"internboard/internal/logging"
	"internboard/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Provider hands out the loaded dataset. engine.Reloader satisfies it.
type Provider interface {
	Current() *engine.Snapshot
	Reload(ctx context.Context) (*engine.Snapshot, error)
}

type Options struct {
	TopK     int
	PageSize int
	// Minimum gap between accepted reloads. Zero disables throttling.
	ReloadInterval time.Duration
	Logger         *slog.Logger
}

type Handler struct {
	data     Provider
	topK     int
	pageSize int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewHandler(data Provider, opts Options) *Handler {
	if opts.TopK <= 0 {
		opts.TopK = engine.DefaultTopK
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	limit := rate.Inf
	if opts.ReloadInterval > 0 {
		limit = rate.Every(opts.ReloadInterval)
	}
	return &Handler{
		data:     data,
		topK:     opts.TopK,
		pageSize: opts.PageSize,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logging.Default(opts.Logger).With("component", "api"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/options", h.GetOptions)
	api.GET("/cities", h.GetCities)
	api.GET("/postings", h.GetPostings)
	api.GET("/postings/export", h.ExportPostings)
	api.GET("/summary", h.GetSummary)
	api.GET("/fields/top", h.GetTopFields)
	api.GET("/education", h.GetEducation)
	api.GET("/treemap", h.GetTreemap)
	api.GET("/dashboard", h.GetDashboard)
	api.POST("/reload", h.Reload)
}

// --- PARAMS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// bindFilter reads q and the repeated province, city and field parameters.
// Blank entries are dropped so "?province=" means no province filter.
func bindFilter(c echo.Context) (models.FilterSpec, error) {
	var spec models.FilterSpec
	err := echo.QueryParamsBinder(c).
		String("q", &spec.Position).
		Strings("province", &spec.Provinces).
		Strings("city", &spec.Cities).
		Strings("field", &spec.Fields).
		BindError()
	if err != nil {
		return spec, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	spec.Provinces = dropBlank(spec.Provinces)
	spec.Cities = dropBlank(spec.Cities)
	spec.Fields = dropBlank(spec.Fields)
	return spec, nil
}

func dropBlank(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// dataset returns the current dataset or a 503 while the first load runs.
func (h *Handler) dataset() (*engine.Dataset, error) {
	snap := h.data.Current()
	if snap == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return snap.Dataset, nil
}

// filtered resolves the dataset and the request's filter in one step.
func (h *Handler) filtered(c echo.Context) (engine.View, error) {
	ds, err := h.dataset()
	if err != nil {
		return engine.View{}, err
	}
	spec, err := bindFilter(c)
	if err != nil {
		return engine.View{}, err
	}
	return engine.ApplyFilter(ds, spec), nil
}

// engineError maps column lookups that went wrong to 400.
func engineError(err error) error {
	if errors.Is(err, engine.ErrUnknownColumn) || errors.Is(err, engine.ErrColumnKind) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return err
}

// --- HANDLERS ---

func (h *Handler) GetHealth(c echo.Context) error {
	snap := h.data.Current()
	if snap == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Health{Status: "loading"})
	}
	return c.JSON(http.StatusOK, healthOf(snap))
}

func healthOf(snap *engine.Snapshot) models.Health {
	loaded := snap.LoadedAt
	return models.Health{
		Status:   "ok",
		Rows:     snap.Dataset.Len(),
		Source:   snap.Source,
		LoadedAt: &loaded,
	}
}

// options for every widget; cities follow the selected provinces
func (h *Handler) GetOptions(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	spec, err := bindFilter(c)
	if err != nil {
		return err
	}
	opts := engine.BuildFilterOptions(ds)
	if len(spec.Provinces) > 0 {
		opts.Cities = engine.NarrowCities(ds, spec.Provinces)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) GetCities(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	spec, err := bindFilter(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.NarrowCities(ds, spec.Provinces))
}

func (h *Handler) GetPostings(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	limit, offset := getPaginationParams(c, h.pageSize)

	return c.JSON(http.StatusOK, models.PostingPage{
		Data:   view.Page(offset, limit).Postings(),
		Total:  view.Len(),
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) ExportPostings(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := engine.WriteXLSX(&buf, view); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="postings.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) GetSummary(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.Summarize(view))
}

// top fields, k defaults to the configured top_k
func (h *Handler) GetTopFields(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	k := h.topK
	if err := echo.QueryParamsBinder(c).Int("k", &k).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	top, err := engine.TopTokens(view, view.Dataset().Schema().Fields, k)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, top)
}

func (h *Handler) GetEducation(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	ds := view.Dataset()
	column := ds.Schema().Education
	if column == "" || !ds.HasColumn(column) {
		return c.JSON(http.StatusOK, []models.TokenCount{})
	}
	counts, err := engine.TokenCounts(view, column)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, counts)
}

// province -> city quota breakdown
func (h *Handler) GetTreemap(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return err
	}
	s := view.Dataset().Schema()
	groups, err := engine.GroupedSum(view, s.Province, s.City, s.Quota)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	spec, err := bindFilter(c)
	if err != nil {
		return err
	}
	data, err := engine.BuildDashboard(ds, spec, h.topK)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, data)
}

// Reload re-reads the source. A failed load keeps serving the previous
// dataset and answers 502.
func (h *Handler) Reload(c echo.Context) error {
	if !h.limiter.Allow() {
		return echo.NewHTTPError(http.StatusTooManyRequests, "reload requested too soon")
	}
	snap, err := h.data.Reload(c.Request().Context())
	if err != nil {
		h.logger.Error("reload failed", "err", err, "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, healthOf(snap))
}
