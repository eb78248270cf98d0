package main

import (
	"net/url"
	"strings"
)

// fragmentPathKey is the fragment key holding the currently open content
// path.
const fragmentPathKey = "p"

// Fragment is the query-string-style state carried in the URL fragment. The
// open post lives under "p"; every other key belongs to someone else and must
// survive updates untouched.
type Fragment struct {
	values url.Values
}

// ParseFragment decodes a fragment string, with or without its leading "#".
// Undecodable input yields an empty state rather than an error; the address
// bar is user-editable and garbage in it must not break navigation.
func ParseFragment(fragment string) Fragment {
	fragment = strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(fragment)
	if err != nil || values == nil {
		values = url.Values{}
	}
	return Fragment{values: values}
}

// Path returns the normalized content path stored in the fragment, or empty.
func (f Fragment) Path() string {
	return NormalizePath(f.values.Get(fragmentPathKey))
}

// WithPath returns a copy of the fragment with the content path replaced and
// all unrelated keys preserved.
func (f Fragment) WithPath(contentPath string) Fragment {
	values := url.Values{}
	for key, list := range f.values {
		values[key] = append([]string(nil), list...)
	}
	values.Set(fragmentPathKey, NormalizePath(contentPath))
	return Fragment{values: values}
}

// Encode serializes the fragment without a leading "#".
func (f Fragment) Encode() string {
	if f.values == nil {
		return ""
	}
	return f.values.Encode()
}

// FragmentHref returns the deep link for a post, suitable for a list entry.
func (p Post) FragmentHref() string {
	return "#" + ParseFragment("").WithPath(p.ContentPath).Encode()
}
