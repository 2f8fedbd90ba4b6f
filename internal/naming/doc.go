// Package naming derives output file names for extracted pages.
//
// A name is a sanitized base derived from the page title plus a
// disambiguator. Two policies are provided: URLTailNamer uses the last
// segment of the source URL path, CounterNamer a per-session counter.
// A Namer never issues the same name twice and is safe for concurrent use,
// so the sessions of one run can share it when they write into the same
// output directory.
package naming
