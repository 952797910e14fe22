// Package report cleans tab-delimited SAP report exports.
//
// This package holds all classification and normalization logic and has no
// file-system, UI, or transport dependencies. Adapters hand it an io.Reader
// and receive a [Result]; writing the result anywhere is the job of the
// export package.
//
// # Pipeline
//
// A run has four stages, each usable on its own:
//
//  1. [Tokenize] decodes the input (lossy, never fatal) and splits it into
//     rows on line breaks and into cells on tabs.
//  2. [FindAnchor] locates the header cell (default "Material") that marks
//     where the data columns begin. When it is missing the configured
//     fallback anchor is used and a warning is recorded.
//  3. [Classify] routes every row below the anchor into exactly one of
//     empty, summary, missing-key, or kept.
//  4. [Normalizer] coerces the kept rows column by column into typed
//     [Field] values according to the [Schema].
//
// [Process] runs all four stages.
//
// # Row Classification
//
// Rules are applied in a fixed order and the first match wins:
//
//	empty        every cell blank              counted, not recorded
//	summary      marker column is "*" or "**"  recorded with the raw line
//	missing key  first extracted field blank   recorded with the extracted cells
//	kept         everything else
//
// Line numbers on recorded rows are 1-based positions in the raw file and
// are never renumbered.
//
// # Numeric Coercion
//
// Integer columns accept German formatted numbers ("1.234,56"), plain
// decimals, and values with regular or non-breaking spaces. A single
// separator is disambiguated heuristically: ",dd" is a decimal comma and
// ".ddd" is a thousands group. Fractions are rounded half to even.
// Anything unparseable becomes null rather than zero.
package report
