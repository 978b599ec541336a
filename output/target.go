// Package output implements the export pipeline: a generic per-row
// writer, a combined writer routing by entity kind/type, template-resolved
// output destinations (file/minio/stdout/memory), a bounded async worker
// pool fronting the hot write path, and a handful of pluggable stream
// strategies (CSV rows, a minio/S3-compatible object target, and a
// supplemental single-page PDF run summary).
package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// Target is a parsed output destination URI of the form
// "scheme://path/with/{replicate}/{step}/placeholders", e.g.
// "minio://bucket/run-{replicate}.csv", "file://./out/{replicate}.csv",
// "stdout://", or "memory://".
type Target struct {
	Scheme string
	Path   string
}

// ParseTarget splits uri into its scheme and path.
func ParseTarget(uri string) (Target, error) {
	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 {
		return Target{}, fmt.Errorf("output: %q is not a valid target URI (missing scheme://)", uri)
	}
	return Target{Scheme: parts[0], Path: parts[1]}, nil
}

// TemplateVars bundles every substitution {var} can resolve to a value in
// a Target's path, per spec §4.7: the always-present {replicate}/{step},
// the run's {user}/{editor} identity, and any number of custom tags
// registered via --custom-tag.
type TemplateVars struct {
	Replicate int
	Step      int  // substituted for {step} only when HasStep is set
	HasStep   bool // set by callers that have a step to substitute
	User      string
	Editor    string
	Tags      map[string]string
}

// Resolve substitutes every {var} placeholder in the target's path. Any
// placeholder left unresolved after substitution (an unknown custom tag, a
// typo, or {step} when the caller has none to give) is a hard error:
// spec §4.7 requires a destination to be fully resolved before writing.
func (t Target) Resolve(vars TemplateVars) (string, error) {
	out := strings.ReplaceAll(t.Path, "{replicate}", strconv.Itoa(vars.Replicate))
	if vars.HasStep {
		out = strings.ReplaceAll(out, "{step}", strconv.Itoa(vars.Step))
	}
	if vars.User != "" {
		out = strings.ReplaceAll(out, "{user}", vars.User)
	}
	if vars.Editor != "" {
		out = strings.ReplaceAll(out, "{editor}", vars.Editor)
	}
	for k, v := range vars.Tags {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}

	if start := strings.IndexByte(out, '{'); start >= 0 {
		end := strings.IndexByte(out[start:], '}')
		if end >= 0 {
			return "", errs.New(errs.UnknownTemplateVar, "unresolved template placeholder %q in target %q",
				out[start:start+end+1], t.Path)
		}
	}
	return out, nil
}
