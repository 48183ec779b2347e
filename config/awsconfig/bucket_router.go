package awsconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/cshum/filterkit/storage/s3storage"
	"gopkg.in/yaml.v3"
)

type bucketRouterConfig struct {
	DefaultBucket string `yaml:"default_bucket"`
	Rules         []struct {
		Prefix string `yaml:"prefix"`
		Bucket string `yaml:"bucket"`
	} `yaml:"rules"`
}

// LoadBucketRouterFromYAML loads prefix bucket routing rules from a YAML file
//
//	default_bucket: images
//	rules:
//	  - prefix: users/
//	    bucket: users-bucket
func LoadBucketRouterFromYAML(path string) (*s3storage.PrefixRouter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg bucketRouterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	rules := make([]s3storage.PrefixRule, 0, len(cfg.Rules))
	for i, r := range cfg.Rules {
		prefix := strings.TrimLeft(r.Prefix, "/")
		if prefix == "" || r.Bucket == "" {
			return nil, fmt.Errorf("bucket router rule %d: prefix and bucket required", i)
		}
		rules = append(rules, s3storage.PrefixRule{Prefix: prefix, Bucket: r.Bucket})
	}
	return s3storage.NewPrefixRouter(rules, cfg.DefaultBucket), nil
}
