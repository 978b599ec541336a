package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// sharedFlags holds the persistent flags common to every joshsim verb
// (§6): replicate counts, external data bindings, custom tags, the
// {user}/{editor} template identity, MinIO credentials, and the ambient
// debug/telemetry switches.
type sharedFlags struct {
	replicates      int
	replicateNumber int
	data            []string // "name=path", path may be a doublestar glob
	customTags      []string // "key=value"
	user            string
	editor          string
	minioEndpoint   string
	minioAccessKey  string
	minioSecret     string
	minioBucket     string
	suppressInfo    bool
	bundle          bool
	debugAddr       string
	otelEndpoint    string
}

func registerSharedFlags(cmd *cobra.Command) *sharedFlags {
	f := &sharedFlags{}
	flags := cmd.PersistentFlags()
	flags.IntVar(&f.replicates, "replicates", 1, "number of replicates to run")
	flags.IntVar(&f.replicateNumber, "replicate-number", 0, "starting replicate index")
	flags.StringArrayVar(&f.data, "data", nil, "external data binding name=path (repeatable; path may be a glob)")
	flags.StringArrayVar(&f.customTags, "custom-tag", nil, "custom output tag key=value (repeatable; 'replicate', 'step', 'user' and 'editor' are reserved)")
	flags.StringVar(&f.user, "user", envOr("USER", ""), "{user} output template substitution")
	flags.StringVar(&f.editor, "editor", envOr("JOSHSIM_EDITOR", ""), "{editor} output template substitution")
	flags.StringVar(&f.minioEndpoint, "minio-endpoint", envOr("MINIO_ENDPOINT", ""), "MinIO/S3 endpoint")
	flags.StringVar(&f.minioAccessKey, "minio-access-key", envOr("MINIO_ACCESS_KEY", ""), "MinIO/S3 access key")
	flags.StringVar(&f.minioSecret, "minio-secret", envOr("MINIO_SECRET", ""), "MinIO/S3 secret key")
	flags.StringVar(&f.minioBucket, "minio-bucket", envOr("MINIO_BUCKET", ""), "MinIO/S3 bucket")
	flags.BoolVar(&f.suppressInfo, "suppress-info", false, "suppress info-level log output")
	flags.BoolVar(&f.bundle, "bundle", false, "also write a provenance tar bundle (preprocess only)")
	flags.StringVar(&f.debugAddr, "debug-addr", "", "start the debug/progress HTTP server on this address")
	flags.StringVar(&f.otelEndpoint, "otel-endpoint", "", "OpenTelemetry OTLP endpoint (disabled when empty)")
	return f
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// dataBinding is one resolved "--data name=path" flag, with glob patterns
// expanded to their matched files.
type dataBinding struct {
	Name  string
	Files []string
}

func parseDataBindings(raw []string) ([]dataBinding, error) {
	out := make([]dataBinding, 0, len(raw))
	for _, entry := range raw {
		name, pattern, ok := splitKV(entry)
		if !ok {
			return nil, errs.New(errs.ConfigError, "malformed --data binding %q, expected name=path", entry)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("--data %s: %w", name, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		out = append(out, dataBinding{Name: name, Files: matches})
	}
	return out, nil
}

// reservedTagKeys are the built-in §4.7 template variables; a custom tag
// can't shadow one of them.
var reservedTagKeys = map[string]bool{
	"replicate": true,
	"step":      true,
	"user":      true,
	"editor":    true,
}

func parseCustomTags(raw []string) (map[string]string, error) {
	tags := map[string]string{}
	for _, entry := range raw {
		key, value, ok := splitKV(entry)
		if !ok {
			return nil, errs.New(errs.ConfigError, "malformed --custom-tag %q, expected key=value", entry)
		}
		if reservedTagKeys[key] {
			return nil, errs.New(errs.ConfigError, "--custom-tag key %q is reserved", key)
		}
		tags[key] = value
	}
	return tags, nil
}

func splitKV(entry string) (string, string, bool) {
	idx := strings.IndexByte(entry, '=')
	if idx < 0 {
		return "", "", false
	}
	return entry[:idx], entry[idx+1:], true
}
