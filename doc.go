// Package ctecompat resolves a host kernel against the CipherTrust
// Transparent Encryption (CTE) agent compatibility data and locates the
// matching installer binary.
//
// The package performs no I/O of its own: documents are retrieved through an
// injected [Fetcher], so resolution is deterministic and safe to run
// concurrently against one loaded [Dataset].
//
// # API Model
//
//   - [ParseKernel] and [NormalizeKernel] turn a kernel release string into
//     comparable keys; [MatchKernel] is the anchored prefix test.
//   - [Source] abstracts the data origins: [JSONMatrixSource] (vendor JSON
//     matrix), [HTMLTableSource] (scraped portal table) and
//     [SupportStatusSource] (release support status overlay).
//   - [Resolve] is the pure verdict algorithm; [Resolver] wires sources with
//     fallback and overlay handling on top of it.
//   - [Locator] maps an OS descriptor and agent version to an
//     [ArtifactTarget].
//   - [Format] and [Summarize] render a [Result] for display.
//
// # Quick Check
//
//	r := ctecompat.NewResolver(
//	    ctecompat.WithSources(ctecompat.NewJSONMatrixSource(fetcher, matrixURL, log)),
//	    ctecompat.WithStatusSource(ctecompat.NewSupportStatusSource(fetcher, statusPath, nil, log)),
//	)
//	res, err := r.Resolve(ctx, "4.18.0-372.41.1.el8_6.x86_64")
//	if err != nil {
//	    log.Fatal(err) // no source could be loaded
//	}
//	fmt.Println(ctecompat.Summarize(res))
//
// # Verdicts
//
// A kernel can be claimed by several OS family rows. The resolver collects
// all of them and reports [VerdictCompatible] if any row is open-ended or
// its support label reads active or supported. No match is
// [VerdictUnknown], not an error.
//
// # Errors
//
// [DataUnavailableError] (fetch failed), [ParseError] (malformed document),
// [DynamicContentError] (client-rendered page without a table),
// [UnsupportedPlatformError] and [ArtifactNotFoundError] are matched with
// errors.As; the sentinels ErrDataUnavailable and friends with errors.Is.
package ctecompat
