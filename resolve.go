package ctecompat

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reasons reported for verdicts that carry no version information.
const (
	ReasonNotFound      = "kernel not found in compatibility matrix"
	ReasonIndeterminate = "support status indeterminate"
	ReasonNoData        = "no compatibility source could be loaded"
)

// Resolve matches the kernel against the dataset entries and derives the
// verdict. It performs no I/O and is safe for concurrent use as long as ds
// is not modified.
//
// Every matching entry is collected in source order. The verdict is
// [VerdictCompatible] when any match is open-ended ("Active") or its support
// label reads active or supported; otherwise the first match decides between
// [VerdictEndOfSupport] and [VerdictUnknown].
func Resolve(key KernelKey, ds *Dataset) *Result {
	res := &Result{
		Kernel:  key,
		Matches: make([]Match, 0),
	}
	if ds == nil {
		ds = &Dataset{}
	}
	res.Overlay = ds.Status != nil

	for _, e := range ds.Entries {
		if !MatchKernel(e.Kernel, key) {
			continue
		}
		res.Matches = append(res.Matches, Match{
			Entry:         e,
			Compatibility: e.Label(),
			Support:       supportLabel(e, ds.Status),
		})
	}

	if len(res.Matches) == 0 {
		res.Verdict = VerdictUnknown
		res.Reason = ReasonNotFound
		return res
	}

	first := res.Matches[0]
	res.Recommended = first.Start
	res.Latest = first.Start
	for _, m := range res.Matches[1:] {
		if compareVersions(m.Start, res.Latest) > 0 {
			res.Latest = m.Start
		}
	}

	for _, m := range res.Matches {
		if !supports(m) {
			continue
		}
		res.Verdict = VerdictCompatible
		res.Reason = fmt.Sprintf("CTE %s still supported on %s (%s)", m.Start, m.OS, activeLabel(m))
		return res
	}

	if Classify(first.Support) == LifecycleEndOfLife || Classify(first.Compatibility) == LifecycleEndOfLife {
		res.Verdict = VerdictEndOfSupport
		res.Reason = fmt.Sprintf("CTE %s on %s is end of support (%s)", first.Start, first.OS, first.Support)
		return res
	}

	res.Verdict = VerdictUnknown
	res.Reason = ReasonIndeterminate
	return res
}

// supports reports whether a match indicates active support: an open range,
// or a support label classified active or supported.
func supports(m Match) bool {
	if m.Compatibility == "Active" {
		return true
	}
	switch Classify(m.Support) {
	case LifecycleActive, LifecycleSupported:
		return true
	}
	return false
}

func activeLabel(m Match) string {
	if m.Compatibility == "Active" {
		return m.Compatibility
	}
	return m.Support
}

// supportLabel prefers the overlay, then the status published with the entry.
func supportLabel(e Entry, status SupportStatus) string {
	if label, ok := status.Lookup(e.Start); ok {
		return label
	}
	if e.Status != "" {
		return e.Status
	}
	return "Unknown"
}

// Resolver loads compatibility data from its sources and resolves kernels.
//
// Entry sources are tried in order and the first one that loads is used;
// data from different entry sources is never mixed. The status source is
// an optional overlay: when it fails, resolution continues without it.
type Resolver struct {
	sources []Source
	status  Source
	log     logrus.FieldLogger
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithSources appends entry sources, in fallback order.
func WithSources(sources ...Source) ResolverOption {
	return func(r *Resolver) {
		r.sources = append(r.sources, sources...)
	}
}

// WithStatusSource sets the support status overlay.
func WithStatusSource(s Source) ResolverOption {
	return func(r *Resolver) {
		r.status = s
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	r.log = loggerOrDiscard(r.log)
	return r
}

// Loaded is a dataset together with where it came from.
type Loaded struct {
	Dataset  *Dataset
	Source   string
	Failures []SourceFailure
}

// Load loads the first available entry source and the status overlay.
// It returns an error wrapping [ErrDataUnavailable] when no entry source
// could be loaded; the returned Loaded still lists the failures.
func (r *Resolver) Load(ctx context.Context) (*Loaded, error) {
	loaded := &Loaded{}
	if len(r.sources) == 0 {
		return loaded, fmt.Errorf("%w: no entry source configured", ErrDataUnavailable)
	}

	var errs []error
	for _, src := range r.sources {
		ds, err := src.Load(ctx)
		if err != nil {
			r.log.WithField("source", src.Name()).WithError(err).Warn("compatibility source failed, trying next")
			loaded.Failures = append(loaded.Failures, SourceFailure{Source: src.Name(), Err: err})
			errs = append(errs, err)
			continue
		}
		loaded.Dataset = &Dataset{Entries: ds.Entries}
		loaded.Source = src.Name()
		break
	}
	if loaded.Dataset == nil {
		return loaded, fmt.Errorf("%w: %w", ErrDataUnavailable, errors.Join(errs...))
	}

	if r.status != nil {
		ds, err := r.status.Load(ctx)
		if err != nil {
			r.log.WithField("source", r.status.Name()).WithError(err).Warn("support status overlay unavailable")
			loaded.Failures = append(loaded.Failures, SourceFailure{Source: r.status.Name(), Err: err})
		} else {
			loaded.Dataset.Status = ds.Status
		}
	}
	return loaded, nil
}

// Resolve loads the sources and resolves kernel.
// When no entry source can be loaded it returns both an Unknown result
// listing the failures and an error wrapping [ErrDataUnavailable].
func (r *Resolver) Resolve(ctx context.Context, kernel string) (*Result, error) {
	results, err := r.ResolveMany(ctx, kernel)
	return results[0], err
}

// ResolveMany loads the sources once and resolves each kernel against the
// same dataset in parallel. Results are in argument order.
func (r *Resolver) ResolveMany(ctx context.Context, kernels ...string) ([]*Result, error) {
	results := make([]*Result, len(kernels))
	loaded, err := r.Load(ctx)
	if err != nil {
		for i, k := range kernels {
			res := Resolve(ParseKernel(k), nil)
			res.Reason = ReasonNoData
			res.Failures = loaded.Failures
			results[i] = res
		}
		return results, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, k := range kernels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := Resolve(ParseKernel(k), loaded.Dataset)
			res.Source = loaded.Source
			res.Failures = loaded.Failures
			r.log.WithFields(logrus.Fields{
				"kernel":  k,
				"matches": len(res.Matches),
				"verdict": res.Verdict,
			}).Debug("resolved kernel")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
