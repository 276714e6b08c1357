package api

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/FairForge/parkbeat/internal/engine"
	"github.com/FairForge/parkbeat/internal/features"
	"github.com/FairForge/parkbeat/internal/logging"
)

// Predictor runs a prediction; *engine.Engine is the production implementation.
type Predictor interface {
	Predict(ctx context.Context, req features.Request) (*engine.Result, error)
}

// Response is a transport-neutral reply in the shape function gateways expect.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// PredictionBody is the JSON body of a successful response.
type PredictionBody struct {
	Minutes     float64 `json:"minutos_predichos"`
	Status      string  `json:"status"`
	Attraction  string  `json:"atraccion"`
	Raw         float64 `json:"prediccion_raw"`
	Blended     float64 `json:"prediccion_combinada"`
	Base        float64 `json:"historico_base"`
	Adjustment  string  `json:"ajuste_aplicado"`
	Specificity string  `json:"especificidad_historico"`
}

// Handler is the prediction service facade. It validates the request,
// runs the predictor and turns every outcome, including panics, into a
// Response.
type Handler struct {
	predictor Predictor
	schema    *gojsonschema.Schema
	metrics   *Metrics
	logger    *zap.Logger
}

// NewHandler creates a facade. metrics may be nil.
func NewHandler(predictor Predictor, metrics *Metrics, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Handler{predictor: predictor, schema: schema, metrics: metrics, logger: logger}, nil
}

// Handle processes one invocation event. The event is either the request
// object itself or an envelope whose "body" holds it as a JSON string or
// object.
func (h *Handler) Handle(ctx context.Context, event []byte) (resp Response) {
	start := time.Now()
	ctx = logging.ContextWithInvocationID(ctx, uuid.NewString())
	log := logging.WithContext(ctx, h.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("prediction panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = h.failure(http.StatusInternalServerError, ErrorBody{Error: fmt.Sprint(r), Type: KindInternal})
		}
		if h.metrics != nil {
			h.metrics.RecordLatency(strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
		}
	}()

	body, err := unwrapEvent(event)
	if err != nil {
		log.Warn("unreadable event", zap.Error(err))
		return h.failure(http.StatusBadRequest, ErrorBody{Error: err.Error(), Type: KindValidation})
	}

	if missing := missingFields(body); len(missing) > 0 {
		log.Warn("request rejected", zap.Strings("missing", missing))
		return h.failure(http.StatusBadRequest, ErrorBody{Error: "Faltan campos: " + strings.Join(missing, ", ")})
	}

	if err := h.validate(body); err != nil {
		log.Warn("request rejected", zap.Error(err))
		return h.failure(http.StatusBadRequest, ErrorBody{Error: err.Error(), Type: KindValidation})
	}

	var req features.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return h.failure(http.StatusBadRequest, ErrorBody{Error: err.Error(), Type: KindValidation})
	}

	res, err := h.predictor.Predict(ctx, req)
	if err != nil {
		eb := classify(err)
		log.Error("prediction failed", zap.String("kind", eb.Type), zap.Error(err))
		return h.failure(http.StatusInternalServerError, eb)
	}

	if h.metrics != nil {
		h.metrics.RecordSuccess(res.Specificity, res.Final)
	}
	return h.respond(http.StatusOK, PredictionBody{
		Minutes:     res.Final,
		Status:      "success",
		Attraction:  res.Attraction,
		Raw:         round2(res.Raw),
		Blended:     round2(res.Blended),
		Base:        round2(res.Base),
		Adjustment:  res.Adjustment,
		Specificity: res.Specificity,
	})
}

func (h *Handler) validate(body []byte) error {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (h *Handler) failure(status int, body ErrorBody) Response {
	if h.metrics != nil {
		h.metrics.RecordFailure(strconv.Itoa(status), body.Type)
	}
	return h.respond(status, body)
}

func (h *Handler) respond(status int, body interface{}) Response {
	headers := map[string]string{"Access-Control-Allow-Origin": "*"}
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"encode response","type":"InternalError"}`)
	}
	if status == http.StatusOK {
		headers["Content-Type"] = "application/json"
	}
	return Response{StatusCode: status, Headers: headers, Body: string(data)}
}

// unwrapEvent returns the request object carried by event.
func unwrapEvent(event []byte) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(event, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON event: %w", err)
	}
	raw, ok := envelope["body"]
	raw = bytes.TrimSpace(raw)
	if !ok || bytes.Equal(raw, []byte("null")) {
		return event, nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid body string: %w", err)
		}
		raw = []byte(s)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return raw, nil
}

func missingFields(body []byte) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return requiredFields
	}
	var missing []string
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
