package app

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salecast/salecast/automl"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/insights"
	"github.com/salecast/salecast/pkg/log"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

// Server wires the prediction form to a trained pipeline. The pipeline
// is read-only after construction, so handlers share it without locks.
type Server struct {
	pipeline *automl.Pipeline
	schema   Schema
	logger   log.Logger
	router   *gin.Engine
}

// NewServer builds the gin router with the form, predict, and health
// routes registered.
func NewServer(pipeline *automl.Pipeline, schema Schema, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		pipeline: pipeline,
		schema:   schema,
		logger:   logger,
		router:   router,
	}

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.handleIndex)
	router.POST("/predict", s.handlePredict)
	router.GET("/healthz", s.handleHealth)
	return s
}

// Router exposes the configured engine for serving and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("prediction server listening",
		"addr", addr,
		log.TaskKey, s.pipeline.Task.String(),
		log.ModelNameKey, s.pipeline.Meta.EstimatorName,
	)
	return s.router.Run(addr)
}

// fieldView carries one field's widget data into the template. Kind
// selects the markup branch.
type fieldView struct {
	Name    string
	Label   string
	Kind    string
	Value   string
	Options []string
	Min     float64
	Max     float64
	Step    float64
	Checked bool
}

type sectionView struct {
	Title  string
	Fields []fieldView
}

type modelCard struct {
	Task      string
	Estimator string
	Metric    string
	TrainedAt string
	Target    string
	Rows      int
	Features  int
}

type resultView struct {
	Regression bool
	Headline   string
	EchoLine   string
	Tier       insights.Tier
	ROI        string
	Marketing  string
	Retention  string
	Label      string
	Confidence string
}

type pageData struct {
	Card     modelCard
	Sections []sectionView
	Result   *resultView
	Error    string
}

type healthResponse struct {
	Status    string `json:"status"`
	Task      string `json:"task"`
	Estimator string `json:"estimator"`
	TrainedAt string `json:"trained_at"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html.tmpl", s.page(s.schema.Defaults(), nil, ""))
}

func (s *Server) handlePredict(c *gin.Context) {
	values, err := s.schema.Parse(c.PostForm)
	if err != nil {
		s.logger.Warn("rejected form submission", log.ErrAttr(err))
		c.HTML(http.StatusBadRequest, "index.html.tmpl", s.page(s.schema.Defaults(), nil, err.Error()))
		return
	}

	pred, err := s.pipeline.PredictRow(values)
	if err != nil {
		s.logger.Error("prediction failed", log.ErrAttr(err))
		c.HTML(http.StatusOK, "index.html.tmpl", s.page(values, nil, err.Error()))
		return
	}

	result := s.buildResult(values, pred)
	s.logger.Info("prediction served",
		log.OperationKey, log.OperationPredict,
		log.TaskKey, s.pipeline.Task.String(),
		"value", pred.Value,
	)
	c.HTML(http.StatusOK, "index.html.tmpl", s.page(values, result, ""))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Task:      s.pipeline.Task.String(),
		Estimator: s.pipeline.Meta.EstimatorName,
		TrainedAt: s.pipeline.Meta.TrainedAt.Format(time.RFC3339),
	})
}

func (s *Server) page(values map[string]string, result *resultView, errMsg string) pageData {
	return pageData{
		Card:     s.card(),
		Sections: s.sectionViews(values),
		Result:   result,
		Error:    errMsg,
	}
}

func (s *Server) card() modelCard {
	meta := s.pipeline.Meta
	return modelCard{
		Task:      s.pipeline.Task.String(),
		Estimator: meta.EstimatorName,
		Metric:    fmt.Sprintf("%s %.3f", meta.Metric, meta.MetricValue),
		TrainedAt: meta.TrainedAt.Format("2006-01-02 15:04 MST"),
		Target:    s.pipeline.TargetName,
		Rows:      meta.Rows,
		Features:  meta.Features,
	}
}

func (s *Server) sectionViews(values map[string]string) []sectionView {
	sections := make([]sectionView, 0, len(s.schema.Sections))
	for _, sec := range s.schema.Sections {
		sv := sectionView{Title: sec.Title}
		for _, f := range sec.Fields {
			sv.Fields = append(sv.Fields, makeFieldView(f, values[f.Name]))
		}
		sections = append(sections, sv)
	}
	return sections
}

// makeFieldView is the render half of the widget dispatch; Schema.Parse
// is the other half.
func makeFieldView(f Field, value string) fieldView {
	view := fieldView{Name: f.Name, Label: f.Label, Value: value}
	switch w := f.Widget.(type) {
	case Select:
		view.Kind = "select"
		view.Options = w.Options
	case Slider:
		view.Kind = "slider"
		view.Min, view.Max, view.Step = w.Min, w.Max, w.Step
	case Number:
		view.Kind = "number"
		view.Min, view.Max, view.Step = w.Min, w.Max, w.Step
	case Checkbox:
		view.Kind = "checkbox"
		view.Checked = value == "1"
	}
	return view
}

func (s *Server) buildResult(values map[string]string, pred *automl.Prediction) *resultView {
	if s.pipeline.Task == dataset.TaskRegression {
		roi, share := insights.Ratios(
			pred.Value,
			floatValue(values, "inventory_value_naira"),
			floatValue(values, "marketing_spend_naira"),
		)
		return &resultView{
			Regression: true,
			Headline:   insights.FormatNaira(pred.Value),
			EchoLine: fmt.Sprintf("₦%sK · %s Naira",
				insights.FormatThousands(pred.Value), insights.PlainNaira(pred.Value)),
			Tier:      insights.TierFor(pred.Value),
			ROI:       fmt.Sprintf("%.1f%%", roi),
			Marketing: fmt.Sprintf("%.1f%%", share),
			Retention: values["customer_retention_rate"],
		}
	}

	result := &resultView{Label: pred.Label}
	if pred.Confidence > 0 {
		result.Confidence = fmt.Sprintf("%.1f%%", pred.Confidence*100)
	}
	return result
}

func floatValue(values map[string]string, name string) float64 {
	v, err := strconv.ParseFloat(values[name], 64)
	if err != nil {
		return 0
	}
	return v
}
