package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"diabetes-api/internal/app"
	"diabetes-api/internal/httputil"
	"diabetes-api/internal/model"
	"diabetes-api/internal/predict"
)

const banner = "Diabetes Prediction API is running!"

// predictRequest uses pointers so a JSON null entry is rejected instead of read as 0.
type predictRequest struct {
	Features []*float64 `json:"features" validate:"required,dive,required"`
}

type predictResponse struct {
	Prediction int `json:"prediction"`
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closer, err := startup(ctx)
	if err != nil {
		return 1
	}
	defer closer.Close()

	srv := &http.Server{
		Addr:              deps.Config.Addr(),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("diabetes prediction api listening", "addr", srv.Addr, "n_features_in", deps.Artifacts.NumFeatures)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.ShutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
		return 1
	}
	return 0
}

// startup builds the dependencies. Faults after config load go through the configured
// logger so they reach LOG_FILE.
func startup(ctx context.Context) (app.Deps, io.Closer, error) {
	cfg, log, closer, err := app.Setup()
	if err != nil {
		slog.Default().Error("failed to load configuration", "err", err)
		return app.Deps{}, nil, err
	}
	deps, err := app.Load(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build dependencies", "err", err)
		closer.Close()
		return app.Deps{}, nil, err
	}
	return deps, closer, nil
}

func newRouter(deps app.Deps) chi.Router {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Get("/", homeHandler(deps))
	r.Post("/predict", predictHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	r.Get("/artifacts", artifactsHandler(deps))
	if deps.Config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return r
}

func homeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(banner)); err != nil {
			deps.Log.Warn("banner write failed", "err", err)
		}
	}
}

func predictHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, deps.Config.MaxBodyBytes)

		dec := json.NewDecoder(body)
		var fields map[string]json.RawMessage
		if err := dec.Decode(&fields); err != nil {
			rejectBody(deps, w, err, "body must be a JSON object")
			return
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			if err == nil {
				err = errors.New("unexpected data after JSON object")
			}
			rejectBody(deps, w, err, "invalid JSON body")
			return
		}

		// keys are matched exactly, unlike struct decoding
		var req predictRequest
		if raw, ok := fields["features"]; ok {
			if err := json.Unmarshal(raw, &req.Features); err != nil {
				rejectBody(deps, w, err, "features must be an array of numbers")
				return
			}
		}

		if err := httputil.Validator.Struct(&req); err != nil {
			deps.Metrics.RecordRejected("validation")
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		features := make(model.FeatureVector, len(req.Features))
		for i, v := range req.Features {
			features[i] = *v
		}

		start := time.Now()
		label, err := deps.Predictor.Predict(features)
		switch {
		case errors.Is(err, predict.ErrInvalidInput):
			deps.Metrics.RecordRejected("invalid_features")
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		case err != nil:
			deps.Metrics.RecordInferenceFault()
			httputil.Fail(deps.Log, w, "prediction failed", err, http.StatusInternalServerError)
			return
		}
		deps.Metrics.RecordPrediction(int(label), time.Since(start))

		httputil.WriteJSON(w, http.StatusOK, predictResponse{Prediction: int(label)})
	}
}

func rejectBody(deps app.Deps, w http.ResponseWriter, err error, typeMsg string) {
	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		deps.Metrics.RecordRejected("too_large")
		httputil.Fail(deps.Log, w, "request body too large", err, http.StatusRequestEntityTooLarge)
	case errors.As(err, &typeErr):
		deps.Metrics.RecordRejected("type")
		httputil.Fail(deps.Log, w, typeMsg, err, http.StatusBadRequest)
	default:
		deps.Metrics.RecordRejected("json")
		httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
	}
}

func artifactsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, deps.Artifacts)
	}
}
