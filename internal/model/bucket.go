package model

import "sort"

// BucketPolicy is the static configuration of an upload bucket.
type BucketPolicy struct {
	Name         string `json:"name"`
	MaxSizeBytes int64  `json:"max_size_bytes"`
	Public       bool   `json:"public"`
}

// BucketPolicies indexes policies by bucket name.
type BucketPolicies map[string]BucketPolicy

// Names returns the configured bucket names, sorted.
func (b BucketPolicies) Names() []string {
	out := make([]string, 0, len(b))
	for name := range b {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
