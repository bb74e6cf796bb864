package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"easyapply/internal/common/config"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const navigateTimeout = 60 * time.Second

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// ChromeDriver drives a local Chrome through the DevTools protocol.
type ChromeDriver struct {
	log           logger.Logger
	actionTimeout time.Duration

	allocCancel context.CancelFunc
	root        string
	tabs        map[string]tab
	current     string
}

// NewChromeDriver launches Chrome and attaches to its first tab.
func NewChromeDriver(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...), map[string]interface{}{"source": "chromedp"})
		}),
	)

	// The first Run starts the browser; it must not carry a short deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, apperrors.NewBrowserStartFailedError(err)
	}

	root := string(chromedp.FromContext(browserCtx).Target.TargetID)
	log.Info("Browser started", map[string]interface{}{
		"headless": cfg.Headless,
		"target":   root,
	})

	return &ChromeDriver{
		log:           log,
		actionTimeout: config.GetDuration(cfg.ElementTimeout),
		allocCancel:   allocCancel,
		root:          root,
		tabs:          map[string]tab{root: {ctx: browserCtx, cancel: browserCancel}},
		current:       root,
	}, nil
}

// run executes actions in the current tab, bounded by timeout and by the caller's ctx.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	tabCtx := d.tabs[d.current].ctx
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(tabCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, navigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := d.run(ctx, d.actionTimeout, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (d *ChromeDriver) WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	nodes, err := d.nodes(ctx, timeout, sel, false, chromedp.NodeVisible)
	if err != nil {
		return nil, err
	}
	return d.element(nodes[0]), nil
}

func (d *ChromeDriver) WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	nodes, err := d.nodes(ctx, timeout, sel, false, chromedp.NodeReady)
	if err != nil {
		return nil, err
	}
	return d.element(nodes[0]), nil
}

func (d *ChromeDriver) WaitAll(ctx context.Context, sel Selector, timeout time.Duration) ([]Element, error) {
	nodes, err := d.nodes(ctx, timeout, sel, true, chromedp.NodeReady)
	if err != nil {
		return nil, err
	}
	return d.elements(nodes), nil
}

func (d *ChromeDriver) Find(ctx context.Context, sel Selector) (Element, error) {
	nodes, err := d.nodes(ctx, d.actionTimeout, sel, false, chromedp.AtLeast(0))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, ErrElementNotFound)
	}
	return d.element(nodes[0]), nil
}

func (d *ChromeDriver) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	nodes, err := d.nodes(ctx, d.actionTimeout, sel, true, chromedp.AtLeast(0))
	if err != nil {
		return nil, err
	}
	return d.elements(nodes), nil
}

func (d *ChromeDriver) nodes(ctx context.Context, timeout time.Duration, sel Selector, all bool, extra ...chromedp.QueryOption) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	value, opts := queryFor(sel, all)
	opts = append(opts, extra...)
	if err := d.run(ctx, timeout, chromedp.Nodes(value, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("%s: %w", sel, err)
	}
	return nodes, nil
}

func queryFor(sel Selector, all bool) (string, []chromedp.QueryOption) {
	by := chromedp.ByQuery
	if all {
		by = chromedp.ByQueryAll
	}
	switch sel.By {
	case ByXPath:
		return sel.Value, []chromedp.QueryOption{chromedp.BySearch}
	case ByID:
		// platform ids carry characters that are not valid in a #id selector
		return idSelector(sel.Value), []chromedp.QueryOption{by}
	default:
		return sel.Value, []chromedp.QueryOption{by}
	}
}

func idSelector(id string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id)
	return `[id="` + escaped + `"]`
}

func (d *ChromeDriver) element(n *cdp.Node) Element {
	return &chromeElement{d: d, node: n}
}

func (d *ChromeDriver) elements(nodes []*cdp.Node) []Element {
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.element(n))
	}
	return out
}

func (d *ChromeDriver) Windows(ctx context.Context) ([]string, error) {
	infos, err := chromedp.Targets(d.tabs[d.root].ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	var handles []string
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

func (d *ChromeDriver) CurrentWindow() string {
	return d.current
}

func (d *ChromeDriver) SwitchTo(ctx context.Context, handle string) error {
	if _, ok := d.tabs[handle]; ok {
		d.current = handle
		return nil
	}

	tabCtx, cancel := chromedp.NewContext(d.tabs[d.root].ctx, chromedp.WithTargetID(target.ID(handle)))
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return fmt.Errorf("attach to window %s: %w", handle, err)
	}
	d.tabs[handle] = tab{ctx: tabCtx, cancel: cancel}
	d.current = handle
	return nil
}

func (d *ChromeDriver) CloseWindow(ctx context.Context, handle string) error {
	if handle == d.root {
		return errors.New("refusing to close the main window")
	}
	if _, ok := d.tabs[handle]; !ok {
		if err := d.SwitchTo(ctx, handle); err != nil {
			return err
		}
	}

	t := d.tabs[handle]
	prev := d.current
	d.current = handle
	err := d.run(ctx, d.actionTimeout, page.Close())
	t.cancel()
	delete(d.tabs, handle)

	d.current = prev
	if prev == handle {
		d.current = d.root
	}
	if err != nil {
		return fmt.Errorf("close window %s: %w", handle, err)
	}
	return nil
}

// Quit closes every tab and the browser process.
func (d *ChromeDriver) Quit() error {
	for handle, t := range d.tabs {
		if handle != d.root {
			t.cancel()
		}
	}
	err := chromedp.Cancel(d.tabs[d.root].ctx)
	d.tabs[d.root].cancel()
	d.allocCancel()
	d.tabs = map[string]tab{}
	return err
}

type chromeElement struct {
	d    *ChromeDriver
	node *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Tag() string {
	return strings.ToLower(e.node.LocalName)
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var s string
	err := e.d.run(ctx, e.d.actionTimeout, chromedp.Text(e.ids(), &s, chromedp.ByNodeID, chromedp.NodeReady))
	return strings.TrimSpace(s), err
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, error) {
	var (
		v  string
		ok bool
	)
	err := e.d.run(ctx, e.d.actionTimeout, chromedp.AttributeValue(e.ids(), name, &v, &ok, chromedp.ByNodeID))
	return v, err
}

func (e *chromeElement) Value(ctx context.Context) (string, error) {
	var v string
	err := e.d.run(ctx, e.d.actionTimeout, chromedp.Value(e.ids(), &v, chromedp.ByNodeID))
	return v, err
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.d.run(ctx, e.d.actionTimeout, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) Type(ctx context.Context, text string) error {
	return e.d.run(ctx, e.d.actionTimeout, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *chromeElement) Clear(ctx context.Context) error {
	return e.d.run(ctx, e.d.actionTimeout, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) Find(ctx context.Context, sel Selector) (Element, error) {
	nodes, err := e.children(ctx, sel, false)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, ErrElementNotFound)
	}
	return e.d.element(nodes[0]), nil
}

func (e *chromeElement) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	nodes, err := e.children(ctx, sel, true)
	if err != nil {
		return nil, err
	}
	return e.d.elements(nodes), nil
}

func (e *chromeElement) children(ctx context.Context, sel Selector, all bool) ([]*cdp.Node, error) {
	if sel.By == ByXPath {
		// DOM.performSearch is document-wide and cannot be scoped to a node.
		return nil, fmt.Errorf("%s: xpath lookups cannot be scoped to an element", sel)
	}
	var nodes []*cdp.Node
	value, opts := queryFor(sel, all)
	opts = append(opts, chromedp.FromNode(e.node), chromedp.AtLeast(0))
	if err := e.d.run(ctx, e.d.actionTimeout, chromedp.Nodes(value, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("%s: %w", sel, err)
	}
	return nodes, nil
}

const selectByTextJS = `function(text) {
	for (const o of this.options) {
		if (o.text.trim() === text) {
			this.value = o.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

func (e *chromeElement) SelectByText(ctx context.Context, text string) error {
	arg, err := json.Marshal(text)
	if err != nil {
		return err
	}

	var found bool
	err = e.d.run(ctx, e.d.actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(selectByTextJS).
			WithObjectID(obj.ObjectID).
			WithArguments([]*runtime.CallArgument{{Value: arg}}).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		found = string(res.Value) == "true"
		return nil
	}))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: %w", text, ErrOptionNotFound)
	}
	return nil
}

func (e *chromeElement) UploadFile(ctx context.Context, path string) error {
	return e.d.run(ctx, e.d.actionTimeout, chromedp.SetUploadFiles(e.ids(), []string{path}, chromedp.ByNodeID))
}
