// Package capture serializes a page rendered in a running Chrome into a
// dom.Capture: markup stamped with element ids, the box and computed style of
// every element, and the React fiber tree when the page carries one.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

// ErrNoMatchingPage means no open tab's URL contains the requested substring.
var ErrNoMatchingPage = errors.New("no open page matches")

// DefaultMaxComponents bounds the number of fiber records serialized.
const DefaultMaxComponents = 20000

type Options struct {
	DebuggerURL   string // ws:// endpoint of a Chrome started with --remote-debugging-port
	Match         string // substring of the page URL; empty takes the first page
	MaxComponents int
}

// Page connects to the browser at opts.DebuggerURL, picks the matching tab and
// captures it. The browser is left running.
func Page(ctx context.Context, opts Options) (*dom.Capture, error) {
	if opts.DebuggerURL == "" {
		return nil, errors.New("debugger url is required")
	}
	if opts.MaxComponents <= 0 {
		opts.MaxComponents = DefaultMaxComponents
	}

	browser := rod.New().ControlURL(opts.DebuggerURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	var urls []string
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		urls = append(urls, info.URL)
		if matchURL(info.URL, opts.Match) {
			return capturePage(ctx, p, opts)
		}
	}
	return nil, fmt.Errorf("%w %q (open: %s)", ErrNoMatchingPage, opts.Match, strings.Join(urls, ", "))
}

func capturePage(ctx context.Context, page *rod.Page, opts Options) (*dom.Capture, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           script(opts.MaxComponents),
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate capture script: %w", err)
	}
	if res == nil {
		return nil, errors.New("capture script returned nothing")
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to read capture result: %w", err)
	}
	return decode(raw, time.Now().UTC())
}

func decode(raw []byte, capturedAt time.Time) (*dom.Capture, error) {
	var c dom.Capture
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	if strings.TrimSpace(c.HTML) == "" {
		return nil, errors.New("capture has no html")
	}
	if c.Components != nil && len(c.Components.Nodes) == 0 {
		c.Components = nil
	}
	c.CapturedAt = capturedAt
	return &c, nil
}

func matchURL(pageURL, match string) bool {
	if match == "" {
		return !strings.HasPrefix(pageURL, "devtools://") && !strings.HasPrefix(pageURL, "chrome://")
	}
	return strings.Contains(pageURL, match)
}

// script returns the function evaluated in the page. Ids are stamped before
// the markup is serialized and removed again afterwards.
func script(maxComponents int) string {
	props, _ := json.Marshal(dom.StyleProperties)
	return fmt.Sprintf(captureJS, dom.IDAttr, props, maxComponents)
}

const captureJS = `() => {
	const idAttr = %[1]q;
	const styleProps = %[2]s;
	const maxComponents = %[3]d;

	const els = Array.from(document.querySelectorAll('*'));
	const ids = new Map();
	els.forEach((el, i) => {
		ids.set(el, i + 1);
		el.setAttribute(idAttr, String(i + 1));
	});

	const layout = [];
	for (const el of els) {
		const r = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		const style = {};
		for (const p of styleProps) style[p] = cs.getPropertyValue(p);
		layout.push({
			id: ids.get(el),
			x: r.left + window.scrollX,
			y: r.top + window.scrollY,
			w: r.width,
			h: r.height,
			style,
		});
	}

	const html = document.documentElement.outerHTML;
	els.forEach(el => el.removeAttribute(idAttr));

	const fiberKey = el => Object.keys(el).find(k =>
		k.startsWith('__reactFiber$') || k.startsWith('__reactInternalInstance$'));
	const fiberIds = new Map();
	const queue = [];
	const idOf = f => {
		if (!f) return null;
		if (!fiberIds.has(f)) {
			fiberIds.set(f, fiberIds.size + 1);
			queue.push(f);
		}
		return fiberIds.get(f);
	};
	const typeName = f => {
		if (typeof f.type === 'string') return f.type;
		if (f.type) return f.type.displayName || f.type.name || '';
		return '';
	};
	const plainProps = p => {
		const out = {};
		if (!p || typeof p !== 'object') return out;
		const primitive = v => ['string', 'number', 'boolean'].includes(typeof v);
		for (const [k, v] of Object.entries(p)) {
			if (primitive(v) || (Array.isArray(v) && v.every(primitive))) out[k] = v;
		}
		return out;
	};

	const attached = {};
	for (const el of els) {
		const k = fiberKey(el);
		if (k) attached[ids.get(el)] = idOf(el[k]);
	}

	const nodes = [];
	while (queue.length > 0 && nodes.length < maxComponents) {
		const f = queue.shift();
		const host = f.stateNode instanceof Element && ids.has(f.stateNode) ? ids.get(f.stateNode) : null;
		nodes.push({
			id: fiberIds.get(f),
			type: typeName(f),
			props: plainProps(f.memoizedProps),
			host,
			child: idOf(f.child),
			sibling: idOf(f.sibling),
		});
	}

	return {
		url: location.href,
		title: document.title,
		userAgent: navigator.userAgent,
		elementCount: els.length,
		html,
		layout,
		components: nodes.length > 0 ? { framework: 'react', nodes, attached } : null,
	};
}`
