package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/metrics"
)

// indexJob is one index URL of one profile.
type indexJob struct {
	slot    int
	profile crawler.SourceProfile
}

// DiscoverAll runs the classifier over every profile and unions the results.
// Index URLs on the same host are scanned one after another; distinct hosts
// run in parallel, at most parallelism at a time. The union keeps the first
// task seen per keyword in profile order, so earlier profiles take priority.
func DiscoverAll(
	ctx context.Context,
	classifier crawler.Classifier,
	profiles []crawler.SourceProfile,
	parallelism int,
	logger *zap.Logger,
) ([]crawler.CandidateTask, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	byHost := make(map[string][]indexJob)
	var hosts []string
	slot := 0
	for _, profile := range profiles {
		for _, indexURL := range profile.IndexURLs {
			single := profile
			single.IndexURLs = []string{indexURL}
			host := hostKey(indexURL)
			if _, ok := byHost[host]; !ok {
				hosts = append(hosts, host)
			}
			byHost[host] = append(byHost[host], indexJob{slot: slot, profile: single})
			slot++
		}
	}

	results := make([][]crawler.CandidateTask, slot)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, host := range hosts {
		jobs := byHost[host]
		g.Go(func() error {
			for _, job := range jobs {
				tasks, err := classifier.Discover(gctx, job.profile)
				if err != nil {
					return err
				}
				results[job.slot] = tasks
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}

	merged := Merge(results...)
	perKind := make(map[crawler.SourceKind]int)
	for _, task := range merged {
		perKind[task.Kind]++
	}
	for kind, n := range perKind {
		metrics.ObserveCandidates(string(kind), n)
	}
	logger.Info("discovery finished", zap.Int("index_urls", slot), zap.Int("candidates", len(merged)))
	return merged, nil
}

// Merge unions task lists, keeping the first task per keyword.
func Merge(lists ...[]crawler.CandidateTask) []crawler.CandidateTask {
	seen := make(map[string]struct{})
	var out []crawler.CandidateTask
	for _, list := range lists {
		for _, task := range list {
			if _, dup := seen[task.Keyword]; dup {
				continue
			}
			seen[task.Keyword] = struct{}{}
			out = append(out, task)
		}
	}
	return out
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
