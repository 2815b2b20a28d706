// Command artifactctl validates exported scaler/model artifacts and publishes them
// to the Redis or SQL artifact source the API loads from.
//
//	artifactctl inspect scaler.json
//	artifactctl push -ref scaler scaler.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"diabetes-api/internal/app"
	"diabetes-api/internal/artifact"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "inspect":
		err = inspectCmd(os.Args[2:], os.Stdout)
	case "push":
		err = pushCmd(os.Args[2:])
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "artifactctl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: artifactctl inspect <file>")
	fmt.Fprintln(w, "       artifactctl push -ref <name> <file>")
}

type summary struct {
	Kind        artifact.Kind `json:"kind"`
	Role        string        `json:"role"`
	NumFeatures int           `json:"n_features_in"`
	Bytes       int           `json:"bytes"`
}

func inspectCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one file")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := inspect(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// inspect decodes the artifact and builds its scaler or classifier.
func inspect(data []byte) (summary, error) {
	doc, err := artifact.Decode(data)
	if err != nil {
		return summary{}, err
	}
	s := summary{Kind: doc.Kind, Bytes: len(data)}
	switch {
	case doc.IsScaler():
		scaler, err := doc.Scaler()
		if err != nil {
			return summary{}, err
		}
		s.Role, s.NumFeatures = "scaler", scaler.NumFeatures()
	case doc.Kind == artifact.KindONNX:
		// the graph itself lives outside the document and is validated at load time
		s.Role, s.NumFeatures = "classifier", doc.NFeaturesIn
	case doc.IsClassifier():
		classifier, err := doc.Classifier()
		if err != nil {
			return summary{}, err
		}
		s.Role, s.NumFeatures = "classifier", classifier.NumFeatures()
	default:
		return summary{}, fmt.Errorf("%w: unknown kind %q", artifact.ErrMalformed, doc.Kind)
	}
	return s, nil
}

func pushCmd(args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	ref := fs.String("ref", "", "artifact name in the target source (e.g. the SCALER_PATH value)")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" || fs.NArg() != 1 {
		return errors.New("push requires -ref and exactly one file")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if _, err := inspect(data); err != nil {
		return err
	}

	cfg, log, closer, err := app.Setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	src, err := app.BuildSource(cfg, log)
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	return push(ctx, log, src, *ref, data)
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func push(ctx context.Context, log *slog.Logger, src artifact.Source, ref string, data []byte) error {
	pub, ok := src.(artifact.Publisher)
	if !ok {
		return fmt.Errorf("artifact source %q does not accept uploads; copy the file instead", src.Name())
	}
	if s, ok := src.(schemaEnsurer); ok {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	if err := pub.Put(ctx, ref, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", ref, err)
	}
	log.Info("artifact published", "source", src.Name(), "ref", ref, "bytes", len(data))
	return nil
}
