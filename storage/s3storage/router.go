package s3storage

import (
	"sort"
	"strings"
)

// BucketRouter determines which bucket to use based on the key
type BucketRouter interface {
	BucketFor(key string) string
}

// PrefixRule maps a key prefix to a bucket
type PrefixRule struct {
	Prefix string
	Bucket string
}

// ParsePrefixRules parses "prefix=bucket" pairs separated by comma
func ParsePrefixRules(s string) (rules []PrefixRule) {
	for _, pair := range strings.Split(s, ",") {
		prefix, bucket, ok := strings.Cut(strings.TrimSpace(pair), "=")
		prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
		bucket = strings.TrimSpace(bucket)
		if ok && prefix != "" && bucket != "" {
			rules = append(rules, PrefixRule{Prefix: prefix, Bucket: bucket})
		}
	}
	return
}

// PrefixRouter routes keys to buckets, longest matching prefix first
type PrefixRouter struct {
	rules    []PrefixRule
	fallback string
}

// NewPrefixRouter creates PrefixRouter, rules are copied and sorted by prefix length
func NewPrefixRouter(rules []PrefixRule, fallback string) *PrefixRouter {
	sorted := append([]PrefixRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &PrefixRouter{rules: sorted, fallback: fallback}
}

// BucketFor implements BucketRouter
func (r *PrefixRouter) BucketFor(key string) string {
	key = strings.TrimLeft(key, "/")
	for _, rule := range r.rules {
		if strings.HasPrefix(key, rule.Prefix) {
			return rule.Bucket
		}
	}
	return r.fallback
}

// Fallback returns the bucket of keys matching no rule
func (r *PrefixRouter) Fallback() string {
	return r.fallback
}
