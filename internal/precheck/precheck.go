package precheck

import (
	"context"
	"log/slog"
	"net/url"
)

// Report is the screening verdict for one site, produced before any browser
// session is committed to it.
type Report struct {
	Site       string
	Reachable  bool
	StatusCode int
	Blocked    bool
	WallVendor string
	// RobotsAllowed covers the site root for our User-Agent.
	RobotsAllowed bool
	// Sitemaps are the sitemap URLs advertised by robots.txt, fed to the
	// discovery backlog as listing candidates.
	Sitemaps []string
}

// Screener combines the probe client and the robots auditor.
type Screener struct {
	client *Client
	robots *Robots
	log    *slog.Logger
}

// NewScreener builds a Screener over client.
func NewScreener(client *Client, logger *slog.Logger) *Screener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screener{
		client: client,
		robots: NewRobots(client, logger),
		log:    logger,
	}
}

// Screen probes siteURL and assembles the verdict. A dead or walled site
// still yields a Report; err is reserved for invalid input and cancellation.
func (s *Screener) Screen(ctx context.Context, siteURL string) (*Report, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}
	root := u.Scheme + "://" + u.Host

	report := &Report{Site: siteURL, RobotsAllowed: true}

	res, err := s.client.Probe(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	report.StatusCode = res.StatusCode
	report.Reachable = res.Error == "" && res.StatusCode > 0 && res.StatusCode < 500
	report.Blocked = res.Blocked
	report.WallVendor = res.WallVendor

	if !report.Reachable || report.Blocked {
		s.log.Info("site failed precheck",
			"site", siteURL, "status", res.StatusCode, "wall", res.WallVendor, "error", res.Error)
		return report, nil
	}

	ua := s.client.cfg.UAPool.Next()
	allowed, err := s.robots.Allowed(ctx, siteURL, ua)
	if err == nil {
		report.RobotsAllowed = allowed
	}
	if sitemaps, err := s.robots.Sitemaps(ctx, root); err == nil {
		report.Sitemaps = sitemaps
	}
	return report, nil
}
