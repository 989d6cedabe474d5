package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/FranksOps/harrier/internal/heuristics"
	"github.com/FranksOps/harrier/internal/metrics"
)

// Browser wraps a shared chromedp exec allocator. Sessions are independent
// tabs spawned from it; the allocator (and the Chrome process) lives until
// Close.
type Browser struct {
	cfg         Config
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// New launches the allocator for a local headless Chrome.
func New(cfg Config) *Browser {
	cfg = cfg.withDefaults()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Browser{cfg: cfg, allocCtx: allocCtx, cancelAlloc: cancel}
}

// Close tears down the allocator and the browser process behind it.
func (b *Browser) Close() {
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}

// NewSession opens a fresh tab. The tab is cancelled when the returned
// session is closed or when ctx is cancelled.
func (b *Browser) NewSession(ctx context.Context) (Session, error) {
	parent, cancelParent := context.WithCancel(b.allocCtx)
	go func() {
		select {
		case <-ctx.Done():
			cancelParent()
		case <-parent.Done():
		}
	}()
	tabCtx, cancelTab := chromedp.NewContext(parent)
	// Force tab allocation now so a dead Chrome surfaces here, not mid-call.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelParent()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromeSession{
		cfg:    b.cfg,
		ctx:    tabCtx,
		cancel: func() { cancelTab(); cancelParent() },
	}, nil
}

// Open navigates a fresh session to url and settles the page. On success the
// caller owns the returned ReadyPage and must Close it; on error the session
// is already released.
func (b *Browser) Open(ctx context.Context, url string) (*ReadyPage, error) {
	sess, err := b.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.Navigate(ctx, url); err != nil {
		sess.Close()
		return nil, err
	}
	metrics.RecordSettle(Settle(ctx, sess, b.cfg))
	loc, err := sess.Location(ctx)
	if err != nil {
		loc = url
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("snapshot %s: %w", loc, err)
	}
	return &ReadyPage{URL: loc, HTML: html, Session: sess}, nil
}

type chromeSession struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.cfg.PageLoadTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, 10*time.Second, chromedp.Location(&loc))
	return loc, err
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, 20*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromeSession) BodyText(ctx context.Context) (string, error) {
	var text string
	err := s.run(ctx, 10*time.Second,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return text, err
}

func (s *chromeSession) CountVisible(ctx context.Context, q heuristics.Query) (int, error) {
	var n int
	err := s.run(ctx, 10*time.Second,
		chromedp.Evaluate(fmt.Sprintf(`%s.length`, visibleJS(q)), &n))
	return n, err
}

func (s *chromeSession) ClickVisible(ctx context.Context, q heuristics.Query, index int) error {
	// Synthetic click so overlays and sticky headers cannot intercept it.
	var ok bool
	err := s.run(ctx, 10*time.Second,
		chromedp.Evaluate(fmt.Sprintf(`(() => {
			const el = %s[%d];
			if (!el) return false;
			el.scrollIntoView({block: "center"});
			el.click();
			return true;
		})()`, visibleJS(q), index), &ok))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("click %s: no visible match at index %d", q.Expr, index)
	}
	return nil
}

func (s *chromeSession) TypeInto(ctx context.Context, q heuristics.Query, index int, text string) error {
	if err := s.mark(ctx, q, index); err != nil {
		return err
	}
	return s.run(ctx, 15*time.Second,
		chromedp.Focus(markSelector, chromedp.ByQuery),
		chromedp.Clear(markSelector, chromedp.ByQuery),
		chromedp.SendKeys(markSelector, text, chromedp.ByQuery),
	)
}

func (s *chromeSession) PressEnter(ctx context.Context, q heuristics.Query, index int) error {
	if err := s.mark(ctx, q, index); err != nil {
		return err
	}
	return s.run(ctx, 10*time.Second,
		chromedp.SendKeys(markSelector, kb.Enter, chromedp.ByQuery))
}

func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, 10*time.Second,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (s *chromeSession) PageHeight(ctx context.Context) (int64, error) {
	var h int64
	err := s.run(ctx, 10*time.Second,
		chromedp.Evaluate(`document.body ? document.body.scrollHeight : 0`, &h))
	return h, err
}

func (s *chromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return nil
}

const markAttr = "data-harrier-target"

var markSelector = "[" + markAttr + "]"

// mark tags the index-th visible match with a scratch attribute so the
// keyboard actions, which address elements by selector, can reach it.
func (s *chromeSession) mark(ctx context.Context, q heuristics.Query, index int) error {
	var ok bool
	err := s.run(ctx, 10*time.Second,
		chromedp.Evaluate(fmt.Sprintf(`(() => {
			document.querySelectorAll(%q).forEach(el => el.removeAttribute(%q));
			const el = %s[%d];
			if (!el) return false;
			el.setAttribute(%q, "1");
			el.scrollIntoView({block: "center"});
			return true;
		})()`, markSelector, markAttr, visibleJS(q), index, markAttr), &ok))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mark %s: no visible match at index %d", q.Expr, index)
	}
	return nil
}

// visibleJS builds an expression evaluating to the visible, enabled matches
// of q, in document order. XPath goes through document.evaluate so both query
// kinds share one code path in the session.
func visibleJS(q heuristics.Query) string {
	var find string
	switch q.By {
	case heuristics.ByXPath:
		find = fmt.Sprintf(`(() => {
			const out = [];
			const it = document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			for (let i = 0; i < it.snapshotLength; i++) out.push(it.snapshotItem(i));
			return out;
		})()`, q.Expr)
	default:
		find = fmt.Sprintf(`Array.from(document.querySelectorAll(%q))`, q.Expr)
	}
	return fmt.Sprintf(`%s.filter(el => el instanceof Element && el.offsetParent !== null && !el.disabled)`,
		strings.TrimSpace(find))
}
