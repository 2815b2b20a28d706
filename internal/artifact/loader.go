package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"diabetes-api/internal/model"
	"diabetes-api/internal/model/onnx"
	"diabetes-api/internal/retry"
)

// Refs names the two artifacts to load from a Source.
type Refs struct {
	Scaler string
	Model  string
}

// Options tunes loading.
type Options struct {
	// FeatureCount, when positive, must match the artifacts' fitted feature count.
	FeatureCount int
	Attempts     int
	Backoff      time.Duration
	// ONNXLibraryPath locates the ONNX Runtime shared library for KindONNX models.
	ONNXLibraryPath string
}

// ArtifactInfo describes one loaded artifact.
type ArtifactInfo struct {
	Kind        Kind   `json:"kind"`
	Source      string `json:"source"`
	Ref         string `json:"ref"`
	SHA256      string `json:"sha256"`
	NumFeatures int    `json:"n_features_in"`
}

// Info describes a loaded scaler/classifier pair.
type Info struct {
	LoadID      uuid.UUID    `json:"load_id"`
	LoadedAt    time.Time    `json:"loaded_at"`
	NumFeatures int          `json:"n_features_in"`
	Scaler      ArtifactInfo `json:"scaler"`
	Model       ArtifactInfo `json:"model"`
}

// Bundle is the immutable pair of fitted artifacts shared by all requests.
type Bundle struct {
	Scaler     model.Scaler
	Classifier model.Classifier
	Info       Info
}

type fetched struct {
	doc  Document
	info ArtifactInfo
}

// Load fetches, decodes and validates both artifacts. Any failure is fatal to the caller:
// a Bundle is only returned when both artifacts are well formed and agree on their feature count.
func Load(ctx context.Context, src Source, refs Refs, opts Options) (*Bundle, error) {
	if refs.Scaler == "" || refs.Model == "" {
		return nil, errors.New("scaler and model refs are required")
	}

	var scalerArt, modelArt fetched
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scalerArt, err = fetchDocument(gctx, src, refs.Scaler, opts)
		if err != nil {
			return fmt.Errorf("scaler %s: %w", refs.Scaler, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		modelArt, err = fetchDocument(gctx, src, refs.Model, opts)
		if err != nil {
			return fmt.Errorf("model %s: %w", refs.Model, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !scalerArt.doc.IsScaler() {
		return nil, fmt.Errorf("scaler %s: %w: kind %q is not a scaler", refs.Scaler, ErrMalformed, scalerArt.doc.Kind)
	}
	if !modelArt.doc.IsClassifier() {
		return nil, fmt.Errorf("model %s: %w: kind %q is not a classifier", refs.Model, ErrMalformed, modelArt.doc.Kind)
	}

	scaler, err := scalerArt.doc.Scaler()
	if err != nil {
		return nil, fmt.Errorf("scaler %s: %w", refs.Scaler, err)
	}
	classifier, err := buildClassifier(src, refs.Model, modelArt.doc, opts)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", refs.Model, err)
	}

	n := scaler.NumFeatures()
	if classifier.NumFeatures() != n {
		return nil, fmt.Errorf("%w: scaler expects %d features, model expects %d", ErrMalformed, n, classifier.NumFeatures())
	}
	if opts.FeatureCount > 0 && opts.FeatureCount != n {
		return nil, fmt.Errorf("%w: artifacts expect %d features, FEATURE_COUNT is %d", ErrMalformed, n, opts.FeatureCount)
	}

	scalerArt.info.NumFeatures = n
	modelArt.info.NumFeatures = n
	return &Bundle{
		Scaler:     scaler,
		Classifier: classifier,
		Info: Info{
			LoadID:      uuid.New(),
			LoadedAt:    time.Now().UTC(),
			NumFeatures: n,
			Scaler:      scalerArt.info,
			Model:       modelArt.info,
		},
	}, nil
}

func fetchDocument(ctx context.Context, src Source, ref string, opts Options) (fetched, error) {
	var data []byte
	err := retry.Do(ctx, opts.Attempts, opts.Backoff, func(ctx context.Context) error {
		var err error
		data, err = src.Fetch(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fetched{}, err
	}
	doc, err := Decode(data)
	if err != nil {
		return fetched{}, err
	}
	sum := sha256.Sum256(data)
	return fetched{
		doc: doc,
		info: ArtifactInfo{
			Kind:   doc.Kind,
			Source: src.Name(),
			Ref:    ref,
			SHA256: hex.EncodeToString(sum[:]),
		},
	}, nil
}

func buildClassifier(src Source, ref string, doc Document, opts Options) (model.Classifier, error) {
	if doc.Kind != KindONNX {
		return doc.Classifier()
	}
	if doc.Path == "" {
		return nil, malformed(doc.Kind, "path is required")
	}
	path := doc.Path
	if fs, ok := src.(*FileSource); ok {
		path = fs.resolvePath(ref, doc.Path)
	}
	return onnx.New(path, onnx.Options{
		LibraryPath: opts.ONNXLibraryPath,
		Input:       doc.Input,
		Output:      doc.Output,
		NumFeatures: doc.NFeaturesIn,
	})
}
