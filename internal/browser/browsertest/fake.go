// Package browsertest provides an in-memory browser.Driver for tests.
//
// Elements are registered under a selector and returned as-is; waits never
// block, they either find a registered visible element or fail with
// browser.ErrTimeout. Page changes are modelled with OnClick and OnNavigate hooks.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"easyapply/internal/browser"
)

const MainWindow = "main"

type Driver struct {
	mu       sync.Mutex
	elements map[browser.Selector][]*Element
	windows  []string
	urls     map[string]string
	current  string

	Navigations []string
	Closed      []string
	quit        bool

	OnNavigate func(url string)
}

var _ browser.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{
		elements: map[browser.Selector][]*Element{},
		windows:  []string{MainWindow},
		urls:     map[string]string{MainWindow: "about:blank"},
		current:  MainWindow,
	}
}

// Set registers els under sel, replacing earlier registrations.
func (d *Driver) Set(sel browser.Selector, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[sel] = els
}

// Remove drops everything registered under sel.
func (d *Driver) Remove(sel browser.Selector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, sel)
}

// SetURL sets the URL of the current window.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls[d.current] = url
}

// OpenWindow adds a window without switching to it, like a popup would.
func (d *Driver) OpenWindow(handle, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, handle)
	d.urls[handle] = url
}

func (d *Driver) Quitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

func (d *Driver) lookup(sel browser.Selector) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Element(nil), d.elements[sel]...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.urls[d.current] = url
	d.Navigations = append(d.Navigations, url)
	hook := d.OnNavigate
	d.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.urls[d.current], nil
}

func (d *Driver) WaitVisible(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, el := range d.lookup(sel) {
		if !el.Hidden {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", sel, browser.ErrTimeout)
}

func (d *Driver) WaitPresent(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := d.lookup(sel)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrTimeout)
	}
	return els[0], nil
}

func (d *Driver) WaitAll(ctx context.Context, sel browser.Selector, timeout time.Duration) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := d.lookup(sel)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrTimeout)
	}
	return asElements(els), nil
}

func (d *Driver) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	els := d.lookup(sel)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrElementNotFound)
	}
	return els[0], nil
}

func (d *Driver) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	return asElements(d.lookup(sel)), nil
}

func (d *Driver) Windows(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.windows...), nil
}

func (d *Driver) CurrentWindow() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Driver) SwitchTo(ctx context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.windows {
		if h == handle {
			d.current = handle
			return nil
		}
	}
	return fmt.Errorf("no window %q", handle)
}

func (d *Driver) CloseWindow(ctx context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, h := range d.windows {
		if h == handle {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			d.Closed = append(d.Closed, handle)
			if d.current == handle {
				d.current = MainWindow
			}
			return nil
		}
	}
	return fmt.Errorf("no window %q", handle)
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
	return nil
}

func asElements(els []*Element) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}

// Element is a scripted DOM node. Zero values are usable.
type Element struct {
	TagName string
	Label   string // visible text
	Attrs   map[string]string
	Current string // value property
	Options []string
	Hidden  bool

	Children map[browser.Selector][]*Element

	OnClick  func() error
	OnEnter  func(typed string)
	ClickErr error

	Clicks   int
	Typed    []string
	Selected string
	Uploaded []string
}

var _ browser.Element = (*Element)(nil)

func NewElement(tag, text string) *Element {
	return &Element{TagName: tag, Label: text, Attrs: map[string]string{}}
}

// Input builds an <input> with the given type and id.
func Input(typ, id string) *Element {
	el := NewElement("input", "")
	el.Attrs["type"] = typ
	el.Attrs["id"] = id
	return el
}

func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[name] = value
	return e
}

func (e *Element) WithChild(sel browser.Selector, els ...*Element) *Element {
	if e.Children == nil {
		e.Children = map[browser.Selector][]*Element{}
	}
	e.Children[sel] = els
	return e
}

func (e *Element) Tag() string { return e.TagName }

func (e *Element) Text(ctx context.Context) (string, error) {
	return strings.TrimSpace(e.Label), nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if name == "value" {
		if v, ok := e.Attrs[name]; ok {
			return v, nil
		}
		return e.Current, nil
	}
	return e.Attrs[name], nil
}

func (e *Element) Value(ctx context.Context) (string, error) {
	return e.Current, nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if text == browser.KeyEnter {
		if e.OnEnter != nil {
			e.OnEnter(e.Current)
		}
		return nil
	}
	e.Typed = append(e.Typed, text)
	e.Current += text
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.Current = ""
	return nil
}

func (e *Element) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	els := e.Children[sel]
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, browser.ErrElementNotFound)
	}
	return els[0], nil
}

func (e *Element) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	return asElements(e.Children[sel]), nil
}

func (e *Element) SelectByText(ctx context.Context, text string) error {
	for _, o := range e.Options {
		if o == text {
			e.Selected = o
			e.Current = o
			return nil
		}
	}
	return fmt.Errorf("%q: %w", text, browser.ErrOptionNotFound)
}

func (e *Element) UploadFile(ctx context.Context, path string) error {
	e.Uploaded = append(e.Uploaded, path)
	return nil
}
